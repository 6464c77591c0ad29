// Package steps lists the step types compiled into the streamgridgo binary.
package steps

import (
	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/steps/csvinput"
	"github.com/vk/streamgridgo/internal/steps/delay"
	"github.com/vk/streamgridgo/internal/steps/dummy"
	"github.com/vk/streamgridgo/internal/steps/envvars"
	"github.com/vk/streamgridgo/internal/steps/filter"
	"github.com/vk/streamgridgo/internal/steps/rowgenerator"
	"github.com/vk/streamgridgo/internal/steps/writetolog"
)

// Core is the definitive list of built-in step modules.
var Core = []catalog.Module{
	csvinput.Module{},
	rowgenerator.Module{},
	dummy.Module{},
	delay.Module{},
	filter.Module{},
	envvars.Module{},
	writetolog.Module{},
}

// NewCatalog returns a catalog holding every built-in step type.
func NewCatalog() *catalog.Catalog {
	return catalog.New(Core...)
}
