package docgen

import (
	"bytes"
	_ "embed"
	"fmt"

	docx "github.com/lukasjarosch/go-docx"
)

// MIMEType is the content type for the generated Word document.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

//go:embed template.docx
var templateDocx []byte

// RenderError reports a template binding failure. BuildContext always
// supplies every known placeholder, so hitting this means the template and
// the context builder have drifted apart.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render document: %v", e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

// Render binds the flat context into the fixed discharge document template
// and returns the document bytes. Nothing is written to disk.
func Render(ctx map[string]string) ([]byte, error) {
	doc, err := docx.OpenBytes(templateDocx)
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	defer doc.Close()

	mapping := docx.PlaceholderMap{}
	for k, v := range ctx {
		mapping[k] = v
	}
	if err := doc.ReplaceAll(mapping); err != nil {
		return nil, &RenderError{Err: err}
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}
