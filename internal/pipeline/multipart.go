package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/hitoshi/eduqa/internal/model"
)

// Multipart はファイルを伴うリクエストのボディ。
// ファイル以外の項目はJSONとしてmetadataフィールドに格納される。
type Multipart struct {
	Metadata any
	Files    []FilePart
}

// FilePart はmultipartの1ファイル分。Fieldは "file" または "attachments"。
type FilePart struct {
	Field  string
	Upload model.FileUpload
}

// NewResourceMultipart は資料アップロード用のボディを生成する。fileはnilでもよい。
func NewResourceMultipart(metadata any, file *model.FileUpload) *Multipart {
	m := &Multipart{Metadata: metadata}
	if file != nil {
		m.Files = append(m.Files, FilePart{Field: "file", Upload: *file})
	}
	return m
}

// NewAttachmentsMultipart は添付ファイル付きの質問・回答用のボディを生成する。
func NewAttachmentsMultipart(metadata any, files []model.FileUpload) *Multipart {
	m := &Multipart{Metadata: metadata}
	for _, f := range files {
		m.Files = append(m.Files, FilePart{Field: "attachments", Upload: f})
	}
	return m
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (m *Multipart) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	meta, err := json.Marshal(m.Metadata)
	if err != nil {
		return nil, "", fmt.Errorf("encode metadata: %w", err)
	}
	if err := w.WriteField("metadata", string(meta)); err != nil {
		return nil, "", err
	}

	for _, f := range m.Files {
		ct := f.Upload.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Upload.Name)))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Upload.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
