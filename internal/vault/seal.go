package vault

import (
	"encoding/json"
	"fmt"

	"github.com/xxxsen/awbdesk/internal/model"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
	"github.com/xxxsen/awbdesk/internal/pkg/fieldcrypt"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
)

// setEncrypted is the only writer of the two encryption flags.
func setEncrypted(doc *model.EditableDocument, encrypted bool) {
	doc.IsEncrypted = encrypted
	doc.IsAnonymized = encrypted
}

// sealDocument returns a sealed copy of doc; doc itself is left untouched.
func sealDocument(sealer *fieldcrypt.Sealer, doc model.EditableDocument) (model.EditableDocument, error) {
	out := doc.Clone()
	for i, f := range out.Fields {
		sealed, err := sealValue(sealer, f.Value)
		if err != nil {
			return doc, fmt.Errorf("seal field %q: %w", f.Label, err)
		}
		out.Fields[i].Value = sealed
	}
	setEncrypted(&out, true)
	return out, nil
}

func sealValue(sealer *fieldcrypt.Sealer, value any) (string, error) {
	var (
		kind  byte
		plain []byte
	)
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", nil
		}
		kind, plain = fieldcrypt.KindString, []byte(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: encode value: %v", appErr.ErrCipherFailure, err)
		}
		kind = fieldcrypt.KindPrimitive
		if jsonvalue.IsStructured(v) {
			kind = fieldcrypt.KindStructured
		}
		plain = data
	}
	return sealer.Seal(kind, plain)
}

// openDocument verifies and decrypts every field of doc into a copy. Any
// failure aborts before the copy is returned.
func openDocument(opener *fieldcrypt.Opener, doc model.EditableDocument) (model.EditableDocument, error) {
	out := doc.Clone()
	for i, f := range out.Fields {
		value, err := openValue(opener, f.Value)
		if err != nil {
			return doc, fmt.Errorf("open field %q: %w", f.Label, err)
		}
		out.Fields[i].Value = value
	}
	setEncrypted(&out, false)
	return out, nil
}

func openValue(opener *fieldcrypt.Opener, value any) (any, error) {
	token, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: value is not sealed", appErr.ErrCipherFailure)
	}
	if token == "" {
		return "", nil
	}
	kind, plain, err := opener.Open(token)
	if err != nil {
		return nil, err
	}
	if len(plain) == 0 {
		return nil, appErr.ErrWrongPassword
	}
	text := string(plain)
	switch kind {
	case fieldcrypt.KindStructured:
		if !jsonvalue.LooksLikeJSON(text) {
			return text, nil
		}
		fallthrough
	case fieldcrypt.KindPrimitive:
		if v, err := jsonvalue.DecodeString(text); err == nil {
			return v, nil
		}
	}
	return text, nil
}
