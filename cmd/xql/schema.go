package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/xqlorm/schema"
)

// schemaFile is the YAML form of a set of entity declarations:
//
//	entities:
//	  - name: User
//	    table: users
//	    properties:
//	      - {name: id, type: uuid, primary_key: true}
//	      - {name: name, type: string, size: 80}
type schemaFile struct {
	Entities []entitySpec `yaml:"entities"`
}

type entitySpec struct {
	Name       string         `yaml:"name"`
	Table      string         `yaml:"table"`
	Properties []propertySpec `yaml:"properties"`
}

type propertySpec struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Field         string `yaml:"field"`
	Generator     string `yaml:"generator"`
	PrimaryKey    bool   `yaml:"primary_key"`
	ReadOnly      bool   `yaml:"read_only"`
	AutoIncrement bool   `yaml:"auto_increment"`
	Size          *int   `yaml:"size"`
	Precision     *int   `yaml:"precision"`
}

var constructors = map[schema.DataType]func(string, ...schema.PropertyOption) *schema.Property{
	schema.TypeUUID:     schema.UUID,
	schema.TypeString:   schema.String,
	schema.TypeText:     schema.Text,
	schema.TypeInteger:  schema.Integer,
	schema.TypeNumeric:  schema.Numeric,
	schema.TypeDate:     schema.Date,
	schema.TypeDateTime: schema.DateTime,
	schema.TypeBool:     schema.Bool,
}

func loadSchema(path string) (schema.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return parseSchema(data)
}

func parseSchema(data []byte) (schema.Catalog, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(f.Entities) == 0 {
		return nil, fmt.Errorf("schema declares no entities")
	}

	catalog := make(schema.Catalog, len(f.Entities))
	for _, e := range f.Entities {
		props := make([]*schema.Property, 0, len(e.Properties))
		for _, p := range e.Properties {
			prop, err := p.build()
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", e.Name, err)
			}
			props = append(props, prop)
		}
		m, err := schema.Define(e.Name, e.Table, props...)
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(e.Name, m); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func (p propertySpec) build() (*schema.Property, error) {
	typ, ok := schema.ParseDataType(p.Type)
	if !ok {
		return nil, fmt.Errorf("property %s: unknown type %q", p.Name, p.Type)
	}

	var opts []schema.PropertyOption
	if p.PrimaryKey {
		opts = append(opts, schema.PrimaryKey())
	}
	if p.ReadOnly {
		opts = append(opts, schema.ReadOnly())
	}
	if p.AutoIncrement {
		opts = append(opts, schema.AutoIncrement())
	}
	if p.Field != "" {
		opts = append(opts, schema.Field(p.Field))
	}
	if p.Generator != "" {
		opts = append(opts, schema.Generator(p.Generator))
	}
	if p.Size != nil {
		opts = append(opts, schema.Size(*p.Size))
	}
	if p.Precision != nil {
		opts = append(opts, schema.Precision(*p.Precision))
	}
	return constructors[typ](p.Name, opts...), nil
}
