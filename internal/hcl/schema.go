package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all top-level blocks of a transformation file.
type fileRoot struct {
	Transformation *transformationBlock `hcl:"transformation,block"`
	Steps          []*stepBlock         `hcl:"step,block"`
	Hops           []*hopBlock          `hcl:"hop,block"`
}

type transformationBlock struct {
	Name        string `hcl:"name,optional"`
	Description string `hcl:"description,optional"`
	BufferSize  int    `hcl:"buffer_size,optional"`
}

type stepBlock struct {
	Type        string       `hcl:"type,label"`
	Name        string       `hcl:"name,label"`
	Description string       `hcl:"description,optional"`
	Distribute  bool         `hcl:"distribute,optional"`
	Config      *configBlock `hcl:"config,block"`
}

type configBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type hopBlock struct {
	From    string `hcl:"from,label"`
	To      string `hcl:"to,label"`
	Enabled *bool  `hcl:"enabled,optional"`
}
