package ingest

import (
	"bytes"
	"strings"

	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

var completeMarkers = []string{"analysis complete", "análisis completado", "analisis completado"}

// Decoder consumes an analysis event stream written in arbitrary chunks and
// accumulates the thinking and response texts. Lines are only handled once
// complete, so chunk boundaries never change the result.
type Decoder struct {
	buf        []byte
	thinking   strings.Builder
	response   string
	onThinking func(string)
}

// NewDecoder returns a Decoder that reports the whole thinking text to
// onThinking every time it grows. onThinking may be nil.
func NewDecoder(onThinking func(string)) *Decoder {
	return &Decoder{onThinking: onThinking}
}

// Write feeds one chunk of the stream.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			break
		}
		line := string(d.buf[:idx])
		d.buf = d.buf[idx+1:]
		d.handleLine(line)
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return len(p), nil
}

// Finish handles a trailing unterminated line once, JSON events only.
func (d *Decoder) Finish() {
	if len(d.buf) == 0 {
		return
	}
	line := string(d.buf)
	d.buf = nil
	data, ok := eventData(line)
	if !ok || strings.TrimSpace(data) == doneSentinel {
		return
	}
	d.applyJSON(data)
}

func (d *Decoder) Thinking() string {
	return d.thinking.String()
}

func (d *Decoder) Response() string {
	return d.response
}

func (d *Decoder) handleLine(line string) {
	data, ok := eventData(line)
	if !ok || strings.TrimSpace(data) == doneSentinel {
		return
	}
	if d.applyJSON(data) {
		return
	}
	if isStatusText(data) {
		d.appendThinking("\n" + data + "\n")
		return
	}
	d.response += data
}

// applyJSON handles a JSON event and reports whether data was valid JSON.
func (d *Decoder) applyJSON(data string) bool {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return false
	}
	v, err := jsonvalue.DecodeString(trimmed)
	if err != nil {
		return false
	}
	obj, ok := v.(*jsonvalue.Object)
	if !ok {
		return true
	}
	thinking, hasThinking := present(obj, "thinking")
	response, hasResponse := present(obj, "response")
	if hasThinking {
		d.appendThinking(jsonvalue.Text(thinking))
	}
	switch {
	case hasResponse:
		if s, ok := response.(string); ok {
			d.response += s
		} else {
			// a structured response is the complete final payload
			d.response = jsonvalue.Text(response)
		}
	case !hasThinking:
		if content, ok := present(obj, "content"); ok {
			d.response += jsonvalue.Text(content)
		}
	}
	return true
}

func (d *Decoder) appendThinking(s string) {
	if s == "" {
		return
	}
	d.thinking.WriteString(s)
	if d.onThinking != nil {
		d.onThinking(d.thinking.String())
	}
}

func eventData(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	return strings.TrimPrefix(line[len(dataPrefix):], " "), true
}

func present(obj *jsonvalue.Object, key string) (any, bool) {
	v, ok := obj.Get(key)
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && s == "" {
		return nil, false
	}
	return v, true
}

func isStatusText(data string) bool {
	trimmed := strings.TrimSpace(data)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range completeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
