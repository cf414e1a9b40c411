package corpus

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	docxDocumentXMLPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	openDocumentContent = "content.xml"
)

var (
	// Paragraph elements. The attribute group keeps <w:pPr> and self-closing
	// empty paragraphs out.
	docxParagraph = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*[^/])?>(.*?)</w:p>`)
	docxText      = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	pptxParagraph = regexp.MustCompile(`(?s)<a:p(?:\s[^>]*[^/])?>(.*?)</a:p>`)
	pptxText      = regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`)
	pptxSlide     = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	odfParagraph  = regexp.MustCompile(`(?s)<text:(p|h)(?:\s[^>]*[^/])?>(.*?)</text:(?:p|h)>`)
	xmlTag        = regexp.MustCompile(`<[^>]*>`)

	partNameRe  = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

func openZip(content []byte, format string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", format, err)
	}
	return zr, nil
}

// readZipEntry returns the contents of name, or nil when the archive has no such entry.
func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// paragraphs joins the text runs of each paragraph match. Runs are
// concatenated without separators since Japanese has no word spacing.
func paragraphs(xml string, para, run *regexp.Regexp) []string {
	var out []string
	for _, p := range para.FindAllStringSubmatch(xml, -1) {
		var b strings.Builder
		for _, r := range run.FindAllStringSubmatch(p[1], -1) {
			b.WriteString(html.UnescapeString(r[1]))
		}
		out = append(out, strings.TrimSpace(b.String()))
	}
	return out
}

// findDocxMainDocumentPath reads the main document part from [Content_Types].xml.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipEntry(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	content := string(data)
	if m := partNameRe.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimPrefix(m[1], "/")
	}
	if m := partNameRe2.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimPrefix(m[1], "/")
	}
	return ""
}

// docxParagraphs returns the text of each <w:p> paragraph of the main document.
func docxParagraphs(content []byte) ([]string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return nil, err
	}
	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	data, err := readZipEntry(zr, docPath)
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	return paragraphs(string(data), docxParagraph, docxText), nil
}

// pptxParagraphs returns the text of each <a:p> paragraph, slides in numeric order.
func pptxParagraphs(content []byte) ([]string, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return nil, err
	}
	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if m := pptxSlide.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{n: n, name: f.Name})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var out []string
	for _, s := range slides {
		data, err := readZipEntry(zr, s.name)
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: %w", err)
		}
		out = append(out, paragraphs(string(data), pptxParagraph, pptxText)...)
	}
	return out, nil
}

// openDocumentParagraphs returns the text of each text:p and text:h element of
// an OpenDocument presentation or spreadsheet, with inline markup removed.
func openDocumentParagraphs(content []byte) ([]string, error) {
	zr, err := openZip(content, "OpenDocument")
	if err != nil {
		return nil, err
	}
	data, err := readZipEntry(zr, openDocumentContent)
	if err != nil {
		return nil, fmt.Errorf("extract OpenDocument: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("extract OpenDocument: %s not found", openDocumentContent)
	}
	var out []string
	for _, m := range odfParagraph.FindAllStringSubmatch(string(data), -1) {
		text := html.UnescapeString(xmlTag.ReplaceAllString(m[2], ""))
		out = append(out, strings.TrimSpace(text))
	}
	return out, nil
}
