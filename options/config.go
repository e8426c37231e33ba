package options

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/gobulge/content"
	"github.com/richinsley/gobulge/geometry"
	"github.com/richinsley/gobulge/messages"
	"github.com/richinsley/gobulge/shader"
)

type Config struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	FPS    int    `toml:"fps"`
	Title  string `toml:"title"`
	Debug  bool   `toml:"debug"`

	Pointer      PointerConfig      `toml:"pointer"`
	Capture      CaptureConfig      `toml:"capture"`
	Displacement DisplacementConfig `toml:"displacement"`
	Light        LightConfig        `toml:"light"`
	Camera       CameraConfig       `toml:"camera"`
	Content      ContentConfig      `toml:"content"`
	Messages     MessagesConfig     `toml:"messages"`
	Record       RecordConfig       `toml:"record"`
	Snapshot     SnapshotConfig     `toml:"snapshot"`
}

type PointerConfig struct {
	Alpha float32 `toml:"alpha"`
}

type CaptureConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

type DisplacementConfig struct {
	Radius   float32 `toml:"radius"`
	Strength float32 `toml:"strength"`
	Lens     float32 `toml:"lens"`
	Pulse    float32 `toml:"pulse"`
}

type LightConfig struct {
	Position  [3]float32 `toml:"position"`
	Color     string     `toml:"color"`
	Intensity float32    `toml:"intensity"`
	Distance  float32    `toml:"distance"`
	Decay     float32    `toml:"decay"`
	Ambient   string     `toml:"ambient"`
}

type CameraConfig struct {
	FOV      float32 `toml:"fov"`
	Near     float32 `toml:"near"`
	Far      float32 `toml:"far"`
	Distance float32 `toml:"distance"`
}

type ContentConfig struct {
	Text       string  `toml:"text"`
	FontSize   float64 `toml:"font_size"`
	FontFile   string  `toml:"font_file"`
	Image      string  `toml:"image"`
	Fit        string  `toml:"fit"`
	Foreground string  `toml:"foreground"`
	Background string  `toml:"background"`
	BaseColor  string  `toml:"base_color"`
}

type MessagesConfig struct {
	// Listen is the address of the content endpoint. Empty disables it.
	Listen         string   `toml:"listen"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type RecordConfig struct {
	Enabled  bool    `toml:"enabled"`
	Output   string  `toml:"output"`
	Duration float64 `toml:"duration"`
	FFmpeg   string  `toml:"ffmpeg"`
	Codec    string  `toml:"codec"`
}

type SnapshotConfig struct {
	Dir string `toml:"dir"`
}

// Default returns the stock scene.
func Default() Config {
	return Config{
		Width:  1280,
		Height: 720,
		FPS:    60,
		Title:  "gobulge",
		Pointer: PointerConfig{
			Alpha: 0.1,
		},
		Capture: CaptureConfig{
			DebounceMS: 100,
		},
		Displacement: DisplacementConfig{
			Radius:   0.25,
			Strength: 0.35,
			Lens:     0.3,
		},
		Light: LightConfig{
			Position:  [3]float32{2, 4, 6},
			Color:     "#ffffff",
			Intensity: 30,
			Distance:  12,
			Decay:     1,
			Ambient:   "#000000",
		},
		Camera: CameraConfig{
			FOV:      55,
			Near:     0.1,
			Far:      200,
			Distance: 5,
		},
		Content: ContentConfig{
			Text:       "Hello, bulge",
			FontSize:   96,
			Fit:        "cover",
			Foreground: "#111111",
			BaseColor:  "#ffffff",
		},
		Record: RecordConfig{
			Output:   "output.mp4",
			Duration: 10,
			Codec:    "h264",
		},
		Snapshot: SnapshotConfig{
			Dir: ".",
		},
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown keys in config %s: %v", path, undecoded)
	}
	// An image named in the file replaces the default text.
	if md.IsDefined("content", "image") && !md.IsDefined("content", "text") {
		c.Content.Text = ""
	}
	return c, nil
}

// Write saves c as TOML.
func Write(path string, c Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.Pointer.Alpha <= 0 || c.Pointer.Alpha >= 1 {
		return fmt.Errorf("pointer alpha must be in (0,1), got %v", c.Pointer.Alpha)
	}
	if c.Capture.DebounceMS <= 0 {
		return fmt.Errorf("capture debounce_ms must be positive, got %d", c.Capture.DebounceMS)
	}
	if err := c.ShaderParams().Validate(); err != nil {
		return fmt.Errorf("displacement: %w", err)
	}
	if _, err := c.ShaderLight(); err != nil {
		return fmt.Errorf("light: %w", err)
	}
	if err := c.CameraParams().Validate(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	if c.Content.Text != "" && c.Content.Image != "" {
		return fmt.Errorf("content: text and image are mutually exclusive")
	}
	if _, err := content.ParseFit(c.Content.Fit); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if _, err := c.BaseColor(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if _, err := c.TextStyle(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if c.Messages.Listen != "" {
		if len(c.Messages.AllowedOrigins) == 0 {
			return fmt.Errorf("messages: listen is set but allowed_origins is empty")
		}
		if _, err := messages.NewValidator(c.Messages.AllowedOrigins); err != nil {
			return fmt.Errorf("messages: %w", err)
		}
	}
	if c.Record.Enabled {
		if c.Record.Duration <= 0 {
			return fmt.Errorf("record: duration must be positive, got %v", c.Record.Duration)
		}
		if c.Record.Output == "" {
			return fmt.Errorf("record: output is required")
		}
		if c.Record.Codec != "h264" && c.Record.Codec != "hevc" {
			return fmt.Errorf("record: codec must be h264 or hevc, got %q", c.Record.Codec)
		}
	}
	return nil
}

func (c Config) DebounceWindow() time.Duration {
	return time.Duration(c.Capture.DebounceMS) * time.Millisecond
}

func (c Config) ShaderParams() shader.Params {
	return shader.Params{
		Radius:   c.Displacement.Radius,
		Strength: c.Displacement.Strength,
		Lens:     c.Displacement.Lens,
		Pulse:    c.Displacement.Pulse,
	}
}

func (c Config) ShaderLight() (shader.Light, error) {
	col, err := parseVec3(c.Light.Color)
	if err != nil {
		return shader.Light{}, err
	}
	if c.Light.Intensity < 0 || c.Light.Distance < 0 || c.Light.Decay < 0 {
		return shader.Light{}, fmt.Errorf("intensity, distance and decay must not be negative")
	}
	return shader.Light{
		Position:  mgl32.Vec3(c.Light.Position),
		Color:     col,
		Intensity: c.Light.Intensity,
		Distance:  c.Light.Distance,
		Decay:     c.Light.Decay,
	}, nil
}

func (c Config) Ambient() (mgl32.Vec3, error) {
	if c.Light.Ambient == "" {
		return mgl32.Vec3{}, nil
	}
	return parseVec3(c.Light.Ambient)
}

func (c Config) BaseColor() (mgl32.Vec3, error) {
	return parseVec3(c.Content.BaseColor)
}

func (c Config) CameraParams() geometry.Camera {
	return geometry.Camera{
		FOV:      c.Camera.FOV,
		Near:     c.Camera.Near,
		Far:      c.Camera.Far,
		Distance: c.Camera.Distance,
	}
}

// TextStyle builds the style for text content. The font file, if any, is read here.
func (c Config) TextStyle() (content.TextStyle, error) {
	style := content.DefaultTextStyle()
	if c.Content.FontSize > 0 {
		style.FontSize = c.Content.FontSize
	}
	if c.Content.Foreground != "" {
		fg, err := content.ParseHexColor(c.Content.Foreground)
		if err != nil {
			return style, err
		}
		style.Foreground = fg
	}
	if c.Content.Background != "" {
		bg, err := content.ParseHexColor(c.Content.Background)
		if err != nil {
			return style, err
		}
		style.Background = bg
	}
	if c.Content.FontFile != "" {
		data, err := os.ReadFile(c.Content.FontFile)
		if err != nil {
			return style, fmt.Errorf("failed to read font: %w", err)
		}
		style.FontData = data
	}
	return style, nil
}

func parseVec3(hex string) (mgl32.Vec3, error) {
	rgba, err := content.ParseHexColor(hex)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return mgl32.Vec3{float32(rgba.R) / 255, float32(rgba.G) / 255, float32(rgba.B) / 255}, nil
}
