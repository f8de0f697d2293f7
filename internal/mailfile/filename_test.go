package mailfile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{in: "Acme Corp", out: "Acme_Corp"},
		{in: `a<b>c:d"e/f\g|h?i*j`, out: "a_b_c_d_e_f_g_h_i_j"},
		{in: "__already__ugly__", out: "already_ugly"},
		{in: "  spaced  out  ", out: "spaced_out"},
		{in: "clean-name.v2", out: "clean-name.v2"},
		{in: "", out: ""},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got := SanitizeFileName(c.in)
			assert.Equal(t, c.out, got)
			assert.Equal(t, got, SanitizeFileName(got), "must be idempotent")
		})
	}
}

func TestBuildFileName(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 9, 30, 15, 0, time.UTC)

	t.Run("single unit pattern", func(t *testing.T) {
		got := BuildFileName("{entity}_{invoice}_{timestamp}", "Acme Corp", "INV-0001", ts)
		assert.Equal(t, "Acme_Corp_INV-0001_20240307_093015", got)
	})

	t.Run("group uses Multiple", func(t *testing.T) {
		got := BuildFileName("{group}_{invoice}_{timestamp}", "BigCorp", GroupInvoiceLabel, ts)
		assert.Equal(t, "BigCorp_Multiple_20240307_093015", got)
	})

	t.Run("zero time drops timestamp and trailing underscore", func(t *testing.T) {
		got := BuildFileName("{entity}_{invoice}_{timestamp}", "Acme", "INV-1", time.Time{})
		assert.Equal(t, "Acme_INV-1", got)
	})

	t.Run("empty invoice collapses cleanly", func(t *testing.T) {
		got := BuildFileName("{entity}_{invoice}", "Acme", "", time.Time{})
		assert.Equal(t, "Acme", got)
	})
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "/abs/file.pdf", Resolve("/abs/file.pdf", "/base"))
	assert.Equal(t, "/base/rel.pdf", Resolve("rel.pdf", "/base"))
	assert.Equal(t, "rel.pdf", Resolve("rel.pdf", ""))
}
