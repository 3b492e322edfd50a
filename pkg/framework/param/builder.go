package param

import (
	"fmt"
	"strings"
)

// Builder provides a fluent API for creating parameters
type Builder struct {
	param *Parameter
}

// New creates a new parameter builder with a 0-1 range
func New(id uint32, name string) *Builder {
	return &Builder{
		param: &Parameter{
			ID:        id,
			Name:      name,
			ShortName: name,
			Min:       0,
			Max:       1,
			Flags:     CanAutomate,
		},
	}
}

// ShortName sets the short name
func (b *Builder) ShortName(name string) *Builder {
	b.param.ShortName = name
	return b
}

// Range sets the min and max values
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the default value (in plain range, not normalized)
func (b *Builder) Default(value float64) *Builder {
	if b.param.Max > b.param.Min {
		b.param.DefaultValue = clamp01((value - b.param.Min) / (b.param.Max - b.param.Min))
	}
	return b
}

// Unit sets the unit string
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Steps sets the number of discrete steps
func (b *Builder) Steps(count int32) *Builder {
	b.param.StepCount = count
	return b
}

// Flags sets parameter flags
func (b *Builder) Flags(flags uint32) *Builder {
	b.param.Flags = flags
	return b
}

// Toggle makes this an on/off switch
func (b *Builder) Toggle() *Builder {
	b.param.Min = 0
	b.param.Max = 1
	b.param.StepCount = 1
	b.param.DefaultValue = 0
	return b.Formatter(OnOffFormatter, OnOffParser)
}

// List makes this a choice between labels, stored as steps 0..len-1.
func (b *Builder) List(labels ...string) *Builder {
	if len(labels) == 0 {
		return b
	}
	b.param.Min = 0
	b.param.Max = float64(len(labels) - 1)
	b.param.StepCount = int32(len(labels) - 1)
	b.param.Flags |= IsList

	format := func(plain float64) string {
		i := int(plain + 0.5)
		if i < 0 || i >= len(labels) {
			return "Unknown"
		}
		return labels[i]
	}
	parse := func(str string) (float64, error) {
		str = strings.TrimSpace(str)
		for i, l := range labels {
			if strings.EqualFold(str, l) {
				return float64(i), nil
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}
	return b.Formatter(format, parse)
}

// ReadOnly marks the parameter as read-only
func (b *Builder) ReadOnly() *Builder {
	b.param.Flags |= IsReadOnly
	b.param.Flags &^= CanAutomate
	return b
}

// Hidden marks the parameter as hidden
func (b *Builder) Hidden() *Builder {
	b.param.Flags |= IsHidden
	return b
}

// Formatter sets custom value formatting and parsing
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.param.formatFunc = format
	b.param.parseFunc = parse
	return b
}

// Build returns the configured parameter, set to its default
func (b *Builder) Build() *Parameter {
	b.param.SetValue(b.param.DefaultValue)
	return b.param
}
