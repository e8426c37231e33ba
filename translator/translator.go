// Package translator cross-compiles the WebGL2 shader sources to the GLSL
// dialect of the current context and reports the renamed uniforms.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
	mu         sync.Mutex
)

// GetTranslator returns the process-wide translator, creating it on first use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, initErr
}

// Result is a translated stage. Names maps each source identifier to the
// identifier the output code uses for it.
type Result struct {
	Code  string
	Names map[string]string
}

// Translate converts one stage ("vertex" or "fragment") of WebGL2 source to
// GLSL 4.10, or to ESSL when gles is set.
func Translate(source, stage string, gles bool) (Result, error) {
	t, err := GetTranslator()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create shader translator: %w", err)
	}
	format := gst.OutputFormatGLSL410
	if gles {
		format = gst.OutputFormatESSL
	}

	mu.Lock()
	out, err := t.TranslateShader(source, stage, gst.ShaderSpecWebGL2, format)
	mu.Unlock()
	if err != nil {
		return Result{}, fmt.Errorf("%s shader translation failed: %w", stage, err)
	}

	res := Result{Code: out.Code, Names: make(map[string]string, len(out.Variables))}
	for name, v := range out.Variables {
		res.Names[name] = v.MappedName
	}
	return res, nil
}

// Merge combines the name tables of linked stages.
func Merge(results ...Result) map[string]string {
	names := make(map[string]string)
	for _, r := range results {
		for k, v := range r.Names {
			names[k] = v
		}
	}
	return names
}
