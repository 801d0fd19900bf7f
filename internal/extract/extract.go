// Package extract turns resume documents into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Supported media types.
const (
	MIMEText     = "text/plain"
	MIMEMarkdown = "text/markdown"
	MIMEHTML     = "text/html"
	MIMEPDF      = "application/pdf"
	MIMEDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedDocument is returned for document types that cannot be read.
var ErrUnsupportedDocument = errors.New("unsupported document type")

var extensionTypes = map[string]string{
	".txt":      MIMEText,
	".text":     MIMEText,
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
	".html":     MIMEHTML,
	".htm":      MIMEHTML,
	".pdf":      MIMEPDF,
	".docx":     MIMEDocx,
}

// SupportedExtensions lists the file extensions Text understands.
func SupportedExtensions() []string {
	return []string{".txt", ".text", ".md", ".markdown", ".html", ".htm", ".pdf", ".docx"}
}

// DetectMIME returns the media type for a file name, by extension.
func DetectMIME(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := extensionTypes[ext]; ok {
		return mt, nil
	}
	return "", fmt.Errorf("%w: extension %q", ErrUnsupportedDocument, ext)
}

// Text extracts text from data, choosing the reader by the file extension.
func Text(filename string, data []byte) (string, error) {
	mt, err := DetectMIME(filename)
	if err != nil {
		return "", err
	}
	return TextByMIME(mt, data)
}

// TextByMIME extracts text from data of the given media type. Parameters such
// as charset are ignored.
func TextByMIME(mediaType string, data []byte) (string, error) {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDocument, mediaType)
	}

	switch mt {
	case MIMEText, MIMEMarkdown:
		return string(data), nil
	case MIMEHTML:
		return htmlText(data)
	case MIMEPDF:
		return pdfText(data)
	case MIMEDocx:
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, mt)
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// docx content is the raw document XML. Paragraph and break boundaries become
// newlines before tags are dropped so words from adjacent paragraphs do not
// run together.
var docxBreaks = strings.NewReplacer(
	"</w:p>", "</w:p>\n",
	"<w:br/>", "\n",
	"<w:tab/>", "\t",
)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	content := docxBreaks.Replace(doc.Editable().GetContent())
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx content: %w", err)
	}
	return parsed.Text(), nil
}

const blockElements = "p,div,li,br,tr,td,th,h1,h2,h3,h4,h5,h6,section,article,header,footer,ul,ol,table"

func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script,style,noscript,template").Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})

	return doc.Find("body").Text(), nil
}
