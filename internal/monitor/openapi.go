package monitor

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/veesix-networks/osvswitch/internal/watchdog"
	"github.com/veesix-networks/osvswitch/pkg/events"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
	"github.com/veesix-networks/osvswitch/pkg/version"
)

// buildOpenAPISpec describes only the endpoints this component serves with
// its current configuration.
func (c *Component) buildOpenAPISpec() *openapi3.T {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "osvswitch monitoring API",
			Description: "Read-only view of the osvswitch daemon",
			Version:     version.Version,
		},
		Paths: &openapi3.Paths{},
	}

	addGet(spec, "/healthz", "Health", "Liveness check", "getHealthz",
		jsonResponse("Process is serving", schemaFromType(reflect.TypeOf(watchdog.HealthResponse{}))))

	spec.Paths.Set("/metrics", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"Metrics"},
			Summary:     "Prometheus metrics",
			OperationID: "getMetrics",
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(200, &openapi3.ResponseRef{
					Value: &openapi3.Response{
						Description: ptr("Metrics in the Prometheus text format"),
						Content: openapi3.Content{
							"text/plain": &openapi3.MediaType{
								Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
							},
						},
					},
				}),
			),
		},
	})

	if c.cfg.Health != nil {
		health := schemaFromType(reflect.TypeOf(watchdog.HealthResponse{}))
		op := addGet(spec, "/readyz", "Health", "Readiness over the watchdog targets", "getReadyz",
			jsonResponse("Every critical target is up", health))
		op.Responses.Set("503", &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: ptr("A critical target is not up"),
				Content:     openapi3.NewContentWithJSONSchemaRef(health),
			},
		})
	}

	if c.cfg.Interfaces != nil {
		op := addGet(spec, "/interfaces", "State", "Interfaces known to the daemon", "listInterfaces",
			jsonResponse("Interface list, or a single interface when name is given",
				schemaFromType(reflect.TypeOf([]southbound.InterfaceDetails{}))))
		op.Parameters = openapi3.Parameters{
			&openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name:        "name",
					In:          "query",
					Description: "Return only the named interface",
					Schema:      &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
				},
			},
		}
		op.Responses.Set("404", &openapi3.ResponseRef{
			Value: &openapi3.Response{Description: ptr("Interface not found")},
		})
	}

	if c.cfg.EventBus != nil {
		addGet(spec, "/events", "State", "Event bus statistics", "getEventStats",
			jsonResponse("Bus counters and subscriptions", schemaFromType(reflect.TypeOf(events.Stats{}))))
	}

	spec.Tags = openapi3.Tags{
		{Name: "Health", Description: "Health endpoints"},
		{Name: "Metrics", Description: "Prometheus exposition"},
		{Name: "State", Description: "Daemon state"},
	}
	return spec
}

func addGet(spec *openapi3.T, path, tag, summary, id string, ok *openapi3.ResponseRef) *openapi3.Operation {
	op := &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     summary,
		OperationID: id,
		Responses:   openapi3.NewResponses(openapi3.WithStatus(200, ok)),
	}
	spec.Paths.Set(path, &openapi3.PathItem{Get: op})
	return op
}

func jsonResponse(desc string, schema *openapi3.SchemaRef) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: ptr(desc),
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	}
}

func (c *Component) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, c.buildOpenAPISpec())
}

func schemaFromType(t reflect.Type) *openapi3.SchemaRef {
	if t == nil {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t {
	case reflect.TypeOf(time.Time{}):
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"}}
	case reflect.TypeOf(time.Duration(0)):
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Description: "Duration in nanoseconds"}}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}
	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}}}
	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "byte"}}
		}
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: schemaFromType(t.Elem())}}
	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: schemaFromType(t.Elem())},
			},
		}
	case reflect.Struct:
		return structToSchema(t)
	}

	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
}

func structToSchema(t reflect.Type) *openapi3.SchemaRef {
	properties := openapi3.Schemas{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			if tag == "-" {
				continue
			}
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				name = n
			}
		}
		properties[name] = schemaFromType(field.Type)
	}

	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: properties,
		},
	}
}

func ptr(s string) *string {
	return &s
}
