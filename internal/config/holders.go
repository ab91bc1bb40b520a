package config

import (
	"fmt"
)

const DefaultCradleWall = 3.0

// HolderParams describe one sweep of socket holders.
type HolderParams struct {
	IDStart       float64 `yaml:"id_start"`
	IDEnd         float64 `yaml:"id_end"`
	Increment     float64 `yaml:"increment"`
	NutSize       float64 `yaml:"nut_size"`
	WallThickness float64 `yaml:"wall_thickness"`
	BaseSTL       string  `yaml:"base_stl,omitempty"`
	FilletLib     string  `yaml:"fillet_lib,omitempty"`
}

func (p HolderParams) Validate() error {
	if p.IDStart <= 0 {
		return fmt.Errorf("--id_start must be greater than zero, got %g", p.IDStart)
	}
	if p.IDEnd <= p.IDStart {
		return fmt.Errorf("--id_end (%g) must be greater than --id_start (%g)", p.IDEnd, p.IDStart)
	}
	if p.Increment <= 0 {
		return fmt.Errorf("--increment must be greater than zero, got %g", p.Increment)
	}
	if p.NutSize <= 0 {
		return fmt.Errorf("--nut_size must be greater than zero, got %g", p.NutSize)
	}
	if p.WallThickness < 0 {
		return fmt.Errorf("--wall must not be negative, got %g", p.WallThickness)
	}
	return nil
}
