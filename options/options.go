package options

import (
	"flag"
	"strings"
)

// BulgeOptions holds the command line flags. Only flags the user actually set
// override the config file.
type BulgeOptions struct {
	ConfigFile  *string
	WriteConfig *string
	Help        *bool
	Debug       *bool
	Record      *bool
	Duration    *float64
	FPS         *int
	Width       *int
	Height      *int
	OutputFile  *string
	FFMPEGPath  *string
	Codec       *string
	Text        *string
	Image       *string
	Listen      *string
	Origins     *string
}

func Flags(fs *flag.FlagSet) *BulgeOptions {
	d := Default()
	return &BulgeOptions{
		ConfigFile:  fs.String("config", "", "Path to a TOML config file"),
		WriteConfig: fs.String("write-config", "", "Write the effective config to this path and exit"),
		Help:        fs.Bool("help", false, "Show help message"),
		Debug:       fs.Bool("debug", d.Debug, "Enable debug logging"),
		Record:      fs.Bool("record", d.Record.Enabled, "Render offscreen and encode to a video file"),
		Duration:    fs.Float64("duration", d.Record.Duration, "Duration to record in seconds"),
		FPS:         fs.Int("fps", d.FPS, "Frames per second for recording"),
		Width:       fs.Int("width", d.Width, "Width of the window or output"),
		Height:      fs.Int("height", d.Height, "Height of the window or output"),
		OutputFile:  fs.String("output", d.Record.Output, "Output file name for recording"),
		FFMPEGPath:  fs.String("ffmpeg", d.Record.FFmpeg, "Path to ffmpeg executable"),
		Codec:       fs.String("codec", d.Record.Codec, "Video codec for recording (h264, hevc)"),
		Text:        fs.String("text", "", "Text content to display"),
		Image:       fs.String("image", "", "Image file to display instead of text"),
		Listen:      fs.String("listen", d.Messages.Listen, "Address for the content replacement endpoint"),
		Origins:     fs.String("origins", "", "Comma separated origins allowed to replace content"),
	}
}

// Apply copies every flag that was set on fs into c.
func (o *BulgeOptions) Apply(fs *flag.FlagSet, c *Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			c.Debug = *o.Debug
		case "record":
			c.Record.Enabled = *o.Record
		case "duration":
			c.Record.Duration = *o.Duration
		case "fps":
			c.FPS = *o.FPS
		case "width":
			c.Width = *o.Width
		case "height":
			c.Height = *o.Height
		case "output":
			c.Record.Output = *o.OutputFile
		case "ffmpeg":
			c.Record.FFmpeg = *o.FFMPEGPath
		case "codec":
			c.Record.Codec = *o.Codec
		case "text":
			c.Content.Text = *o.Text
			c.Content.Image = ""
		case "image":
			c.Content.Image = *o.Image
			c.Content.Text = ""
		case "listen":
			c.Messages.Listen = *o.Listen
		case "origins":
			c.Messages.AllowedOrigins = splitList(*o.Origins)
		}
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
