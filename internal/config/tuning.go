package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// It lists the same values the Get* accessors fall back to when a field
// is omitted.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root configuration for detection, tracking, box
// rejection, and localization knobs. The schema matches the runtime
// tuning endpoint a host process may expose, so the same JSON document
// can configure a cold start and a live parameter update. Every field is
// a pointer: a field omitted from the JSON retains its Get* default, so
// partial configs are always safe to load.
type TuningConfig struct {
	// Detection params
	ImageRows           *int      `json:"image_rows,omitempty"`
	ImageCols           *int      `json:"image_cols,omitempty"`
	NumClasses          *int      `json:"num_classes,omitempty"`
	ClassMap            *[]string `json:"class_map,omitempty"`
	NMSThresh           *float64  `json:"nms_thresh,omitempty"`
	ConfThresh          *float64  `json:"conf_thresh,omitempty"`
	MaxOutputBBoxCount  *int      `json:"max_output_bbox_count,omitempty"`

	// Tracking params
	MaxFramesToSkip *int     `json:"max_frames_to_skip,omitempty"`
	DistThreshold   *float64 `json:"dist_threshold,omitempty"`
	CenterThreshold *float64 `json:"center_threshold,omitempty"`
	AreaThreshold   *float64 `json:"area_threshold,omitempty"`
	BodyRatio       *float64 `json:"body_ratio,omitempty"`
	DT              *float64 `json:"dt,omitempty"`
	UseDim          *bool    `json:"use_dim,omitempty"`
	UseVel          *bool    `json:"use_vel,omitempty"`
	ProcessNoise    *[]float64 `json:"process_noise,omitempty"`
	MeasurementNoise *[]float64 `json:"measurement_noise,omitempty"`

	// Box rejection params
	MinBBoxWidth  *float64 `json:"min_bbox_width,omitempty"`
	MinBBoxHeight *float64 `json:"min_bbox_height,omitempty"`
	MaxBBoxWidth  *float64 `json:"max_bbox_width,omitempty"`
	MaxBBoxHeight *float64 `json:"max_bbox_height,omitempty"`

	// Localization (depth projector) params
	RejectionThreshold *float64 `json:"rejection_threshold,omitempty"`
	MinRange           *float64 `json:"min_range,omitempty"`
	MaxRange           *float64 `json:"max_range,omitempty"`
	FocalLengthX       *float64 `json:"focal_length_x,omitempty"`
	FocalLengthY       *float64 `json:"focal_length_y,omitempty"`
	PrincipalPointX    *float64 `json:"principal_point_x,omitempty"`
	PrincipalPointY    *float64 `json:"principal_point_y,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to ensure it has a .json extension and is under the max file
// size. Fields omitted from the JSON file retain their default values,
// so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching from the current directory up through
// common parent directories. Panics if the file cannot be loaded;
// intended for test setup, not production start-up paths.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
		"../../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are internally
// consistent (non-negative counts, min ≤ max ranges, and the like).
func (c *TuningConfig) Validate() error {
	if c.ConfThresh != nil && (*c.ConfThresh < 0 || *c.ConfThresh > 1) {
		return fmt.Errorf("conf_thresh must be between 0 and 1, got %f", *c.ConfThresh)
	}
	if c.NMSThresh != nil && (*c.NMSThresh < 0 || *c.NMSThresh > 1) {
		return fmt.Errorf("nms_thresh must be between 0 and 1, got %f", *c.NMSThresh)
	}
	if c.MaxFramesToSkip != nil && *c.MaxFramesToSkip < 0 {
		return fmt.Errorf("max_frames_to_skip must be non-negative, got %d", *c.MaxFramesToSkip)
	}
	if c.DT != nil && *c.DT <= 0 {
		return fmt.Errorf("dt must be positive, got %f", *c.DT)
	}
	if c.MinBBoxWidth != nil && c.MaxBBoxWidth != nil && *c.MinBBoxWidth > *c.MaxBBoxWidth {
		return fmt.Errorf("min_bbox_width (%f) exceeds max_bbox_width (%f)", *c.MinBBoxWidth, *c.MaxBBoxWidth)
	}
	if c.MinBBoxHeight != nil && c.MaxBBoxHeight != nil && *c.MinBBoxHeight > *c.MaxBBoxHeight {
		return fmt.Errorf("min_bbox_height (%f) exceeds max_bbox_height (%f)", *c.MinBBoxHeight, *c.MaxBBoxHeight)
	}
	if c.MinRange != nil && c.MaxRange != nil && *c.MinRange > *c.MaxRange {
		return fmt.Errorf("min_range (%f) exceeds max_range (%f)", *c.MinRange, *c.MaxRange)
	}
	return nil
}

// --- Detection accessors ---

func (c *TuningConfig) GetImageRows() int {
	if c.ImageRows == nil {
		return 480
	}
	return *c.ImageRows
}

func (c *TuningConfig) GetImageCols() int {
	if c.ImageCols == nil {
		return 640
	}
	return *c.ImageCols
}

func (c *TuningConfig) GetNumClasses() int {
	if c.NumClasses == nil {
		return 1
	}
	return *c.NumClasses
}

func (c *TuningConfig) GetClassMap() []string {
	if c.ClassMap == nil {
		return []string{"object"}
	}
	return *c.ClassMap
}

func (c *TuningConfig) GetNMSThresh() float64 {
	if c.NMSThresh == nil {
		return 0.45
	}
	return *c.NMSThresh
}

func (c *TuningConfig) GetConfThresh() float64 {
	if c.ConfThresh == nil {
		return 0.25
	}
	return *c.ConfThresh
}

func (c *TuningConfig) GetMaxOutputBBoxCount() int {
	if c.MaxOutputBBoxCount == nil {
		return 1000
	}
	return *c.MaxOutputBBoxCount
}

// --- Tracking accessors ---

func (c *TuningConfig) GetMaxFramesToSkip() int {
	if c.MaxFramesToSkip == nil {
		return 15
	}
	return *c.MaxFramesToSkip
}

func (c *TuningConfig) GetDistThreshold() float64 {
	if c.DistThreshold == nil {
		return 150.0
	}
	return *c.DistThreshold
}

func (c *TuningConfig) GetCenterThreshold() float64 {
	if c.CenterThreshold == nil {
		return 80.0
	}
	return *c.CenterThreshold
}

func (c *TuningConfig) GetAreaThreshold() float64 {
	if c.AreaThreshold == nil {
		return 3.0
	}
	return *c.AreaThreshold
}

func (c *TuningConfig) GetBodyRatio() float64 {
	if c.BodyRatio == nil {
		return 0.5
	}
	return *c.BodyRatio
}

func (c *TuningConfig) GetDT() float64 {
	if c.DT == nil {
		return 0.02
	}
	return *c.DT
}

func (c *TuningConfig) GetUseDim() bool {
	if c.UseDim == nil {
		return true
	}
	return *c.UseDim
}

func (c *TuningConfig) GetUseVel() bool {
	if c.UseVel == nil {
		return false
	}
	return *c.UseVel
}

// GetProcessNoise returns the process-noise diagonal, defaulting to the
// ROS node's six-component {x, y, vx, vy, w, h} variances.
func (c *TuningConfig) GetProcessNoise() []float64 {
	if c.ProcessNoise == nil {
		return []float64{9, 9, 200, 200, 5, 5}
	}
	return *c.ProcessNoise
}

// GetMeasurementNoise returns the measurement-noise diagonal, defaulting
// to the ROS node's six-component {x, y, vx, vy, w, h} variances.
func (c *TuningConfig) GetMeasurementNoise() []float64 {
	if c.MeasurementNoise == nil {
		return []float64{2, 2, 200, 200, 2, 2}
	}
	return *c.MeasurementNoise
}

// --- Box rejection accessors ---

func (c *TuningConfig) GetMinBBoxWidth() float64 {
	if c.MinBBoxWidth == nil {
		return 60.0
	}
	return *c.MinBBoxWidth
}

func (c *TuningConfig) GetMinBBoxHeight() float64 {
	if c.MinBBoxHeight == nil {
		return 60.0
	}
	return *c.MinBBoxHeight
}

func (c *TuningConfig) GetMaxBBoxWidth() float64 {
	if c.MaxBBoxWidth == nil {
		return 400.0
	}
	return *c.MaxBBoxWidth
}

func (c *TuningConfig) GetMaxBBoxHeight() float64 {
	if c.MaxBBoxHeight == nil {
		return 300.0
	}
	return *c.MaxBBoxHeight
}

// --- Localization accessors ---

func (c *TuningConfig) GetRejectionThreshold() float64 {
	if c.RejectionThreshold == nil {
		return 0.15
	}
	return *c.RejectionThreshold
}

func (c *TuningConfig) GetMinRange() float64 {
	if c.MinRange == nil {
		return 0.02
	}
	return *c.MinRange
}

func (c *TuningConfig) GetMaxRange() float64 {
	if c.MaxRange == nil {
		return 58.0
	}
	return *c.MaxRange
}

func (c *TuningConfig) GetFocalLengthX() float64 {
	if c.FocalLengthX == nil {
		return 525.0
	}
	return *c.FocalLengthX
}

func (c *TuningConfig) GetFocalLengthY() float64 {
	if c.FocalLengthY == nil {
		return 525.0
	}
	return *c.FocalLengthY
}

func (c *TuningConfig) GetPrincipalPointX() float64 {
	if c.PrincipalPointX == nil {
		return float64(c.GetImageCols()) / 2
	}
	return *c.PrincipalPointX
}

func (c *TuningConfig) GetPrincipalPointY() float64 {
	if c.PrincipalPointY == nil {
		return float64(c.GetImageRows()) / 2
	}
	return *c.PrincipalPointY
}
