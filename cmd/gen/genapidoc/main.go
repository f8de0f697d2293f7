package genapidoc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/mitchellh/cli"

	"github.com/yusufsyaifudin/layang/pkg/respbuilder"
	"github.com/yusufsyaifudin/layang/pkg/validator"
)

type ApiDocCfg struct {
	// OutDir receives swagger.json, default is ./doc.
	OutDir string
}

type ApiDoc struct {
	Config ApiDocCfg
}

var _ cli.Command = (*ApiDoc)(nil)

func NewApiDocCmd(cfg ApiDocCfg) (*ApiDoc, error) {
	err := validator.Validate(cfg)
	if err != nil {
		err = fmt.Errorf("genapidocs: validation error: %w", err)
		return nil, err
	}

	if cfg.OutDir == "" {
		cfg.OutDir = "doc"
	}

	return &ApiDoc{Config: cfg}, nil
}

func (a *ApiDoc) Help() string {
	return "generate apidoc json describing the REST API"
}

func (a *ApiDoc) Synopsis() string {
	return "generate apidoc json describing the REST API"
}

// Run .
// all JSON responses follow respbuilder.HTTPSuccess / respbuilder.HTTPError
func (a *ApiDoc) Run(args []string) int {
	ctx := context.Background()

	info := &openapi3.Info{
		Title:       "Layang",
		Description: "CSV driven invoice email file generator",
		Version:     "1.0.0",
	}

	servers := openapi3.Servers{
		{
			URL:         "http://localhost:8000/",
			Description: "Localhost",
		},
	}

	components := openapi3.Components{
		Schemas:         map[string]*openapi3.SchemaRef{},
		Parameters:      map[string]*openapi3.ParameterRef{},
		Headers:         map[string]*openapi3.HeaderRef{},
		RequestBodies:   map[string]*openapi3.RequestBodyRef{},
		Responses:       map[string]*openapi3.ResponseRef{},
		SecuritySchemes: map[string]*openapi3.SecuritySchemeRef{},
		Examples:        map[string]*openapi3.ExampleRef{},
		Links:           map[string]*openapi3.LinkRef{},
		Callbacks:       map[string]*openapi3.CallbackRef{},
	}
	paths := make(map[string]*openapi3.PathItem)

	// ** Register all routes here
	CsvRoutes(ctx, components, paths)
	ConfigRoutes(ctx, components, paths)
	TemplateRoutes(ctx, components, paths)
	GenerateRoutes(ctx, components, paths)
	OutboxRoutes(ctx, components, paths)
	AttachmentRoutes(ctx, components, paths)

	doc := &openapi3.T{
		OpenAPI:    "3.0.0",
		Components: components,
		Info:       info,
		Servers:    servers,
		Paths:      paths,
	}

	j, err := doc.MarshalJSON()
	if err != nil {
		err = fmt.Errorf("cannot marshal openapi3 doc: %w", err)
		log.Println(err)
		return 1
	}

	// pretty print for review friendliness
	var buf interface{}
	if err = json.Unmarshal(j, &buf); err == nil {
		if pretty, prettyErr := json.MarshalIndent(buf, "", "  "); prettyErr == nil {
			j = pretty
		}
	}

	err = WriteFile(j, path.Join(a.Config.OutDir, "swagger.json"))
	if err != nil {
		log.Println(err)
		return 1
	}

	fmt.Printf("wrote %s\n", path.Join(a.Config.OutDir, "swagger.json"))
	return 0
}

func WriteFile(content []byte, fileName string) (err error) {
	dir := path.Dir(fileName)
	err = os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		err = fmt.Errorf("cannot create directory %s: %w", dir, err)
		return
	}

	err = os.WriteFile(fileName, content, 0o644)
	if err != nil {
		err = fmt.Errorf("cannot write %s: %w", fileName, err)
		return
	}

	return nil
}

// operation describes one route for registration.
type operation struct {
	Method      string
	Route       string
	Tag         string
	Summary     string
	Name        string
	Request     interface{} // nil means no JSON request body
	Response    interface{} // wrapped in respbuilder.Success
	Status      int
	RawResponse bool // binary response, no JSON schema
}

// register generates schemas for one operation and mounts it on the path
// map.
func register(ctx context.Context, components openapi3.Components, paths map[string]*openapi3.PathItem, op operation) {
	oaOp := openapi3.NewOperation()
	oaOp.Tags = []string{op.Tag}
	oaOp.Summary = op.Summary
	oaOp.OperationID = op.Name

	if op.Request != nil {
		ref, err := openapi3gen.NewSchemaRefForValue(op.Request, components.Schemas)
		if err != nil {
			log.Printf("schema generation for %s request: %s", op.Name, err)
			return
		}

		reqBody := openapi3.NewRequestBody().WithJSONSchemaRef(ref)
		components.RequestBodies[op.Name] = &openapi3.RequestBodyRef{Value: reqBody}
		oaOp.RequestBody = &openapi3.RequestBodyRef{
			Ref: fmt.Sprintf("#/components/requestBodies/%s", op.Name),
		}
	}

	status := op.Status
	if status == 0 {
		status = http.StatusOK
	}

	if op.RawResponse {
		oaOp.AddResponse(status, openapi3.NewResponse().WithDescription("binary content"))
	} else {
		wrapped := respbuilder.Success(ctx, op.Response)
		ref, err := openapi3gen.NewSchemaRefForValue(wrapped, components.Schemas)
		if err != nil {
			log.Printf("schema generation for %s response: %s", op.Name, err)
			return
		}

		oaOp.AddResponse(status, openapi3.NewResponse().WithJSONSchemaRef(ref).WithDescription("success"))
	}

	if _, exist := paths[op.Route]; !exist {
		paths[op.Route] = &openapi3.PathItem{}
	}
	paths[op.Route].SetOperation(op.Method, oaOp)
}
