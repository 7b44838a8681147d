package indexstore

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
)

const (
	// NameTokenizerName splits filenames on word boundaries the way a
	// person reading a directory listing would.
	NameTokenizerName = "searchbuddy_name_tokenizer"
	// ContentStopFilterName removes common English function words from
	// content, never from filenames (see tokenizer.go).
	ContentStopFilterName = "searchbuddy_content_stop"
	// NameAnalyzerName tokenizes+lowercases filenames, no stop filter.
	NameAnalyzerName = "searchbuddy_name_analyzer"
	// ContentAnalyzerName tokenizes+lowercases+stop-filters file content.
	ContentAnalyzerName = "searchbuddy_content_analyzer"

	FieldNameTok  = "name_tok"
	FieldNameRaw  = "name_raw"
	FieldExt      = "ext"
	FieldContent  = "content"
	FieldMtime    = "mtime"
	FieldSize     = "size"
	FieldInode    = "inode"
	FieldDev      = "dev"
	docTypeName   = "document"
	fieldTypeName = "_type"
)

func init() {
	_ = registry.RegisterTokenizer(NameTokenizerName, nameTokenizerConstructor)
	_ = registry.RegisterTokenFilter(ContentStopFilterName, contentStopFilterConstructor)
}

// buildIndexMapping constructs the bleve mapping: name_tok/content
// share a custom analyzer (content additionally stop-filtered),
// name_raw/ext are untokenized keyword fields carrying pre-lowercased
// strings, mtime/size are numeric fast fields, inode/dev are
// stored-only.
func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	if err := im.AddCustomAnalyzer(NameAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": NameTokenizerName,
		"token_filters": []string{
			lowercase.Name,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to register name analyzer: %w", err)
	}

	if err := im.AddCustomAnalyzer(ContentAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": NameTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			ContentStopFilterName,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to register content analyzer: %w", err)
	}

	nameTok := bleve.NewTextFieldMapping()
	nameTok.Analyzer = NameAnalyzerName
	nameTok.Store = false

	nameRaw := bleve.NewTextFieldMapping()
	nameRaw.Analyzer = keyword.Name
	nameRaw.Store = true

	ext := bleve.NewTextFieldMapping()
	ext.Analyzer = keyword.Name
	ext.Store = true

	content := bleve.NewTextFieldMapping()
	content.Analyzer = ContentAnalyzerName
	content.Store = false
	content.IncludeTermVectors = true

	mtime := bleve.NewNumericFieldMapping()
	mtime.Store = true

	size := bleve.NewNumericFieldMapping()
	size.Store = true

	inode := bleve.NewNumericFieldMapping()
	inode.Index = false
	inode.Store = true

	dev := bleve.NewNumericFieldMapping()
	dev.Index = false
	dev.Store = true

	nameStored := bleve.NewTextFieldMapping()
	nameStored.Analyzer = keyword.Name
	nameStored.Store = true
	nameStored.Index = false

	pathStored := bleve.NewTextFieldMapping()
	pathStored.Analyzer = keyword.Name
	pathStored.Store = true
	pathStored.Index = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(FieldNameTok, nameTok)
	doc.AddFieldMappingsAt(FieldNameRaw, nameRaw)
	doc.AddFieldMappingsAt(FieldExt, ext)
	doc.AddFieldMappingsAt(FieldContent, content)
	doc.AddFieldMappingsAt(FieldMtime, mtime)
	doc.AddFieldMappingsAt(FieldSize, size)
	doc.AddFieldMappingsAt(FieldInode, inode)
	doc.AddFieldMappingsAt(FieldDev, dev)
	doc.AddFieldMappingsAt("name_display", nameStored)
	doc.AddFieldMappingsAt("path_display", pathStored)

	im.AddDocumentMapping(docTypeName, doc)
	im.DefaultMapping = doc
	im.DefaultAnalyzer = ContentAnalyzerName
	im.TypeField = fieldTypeName

	return im, nil
}

func nameTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &nameTokenizer{}, nil
}

// nameTokenizer implements analysis.Tokenizer over TokenizeName.
type nameTokenizer struct{}

func (t *nameTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)

	// Content assembled from sampled head+tail carries ContentSeparator
	// at the join. Tokenizing each side independently and opening a
	// position gap across the boundary keeps a phrase query from ever
	// matching across the sampling gap, since bleve's phrase matcher
	// requires strictly adjacent term positions.
	segments := strings.Split(text, docmodel.ContentSeparator)
	result := make(analysis.TokenStream, 0, len(text)/4)
	pos := 1
	baseOffset := 0
	for i, seg := range segments {
		tokens := TokenizeName(seg)
		lowerSeg := toLowerASCIIFast(seg)
		offset := 0
		for _, tok := range tokens {
			start := indexFrom(lowerSeg, tok, offset)
			if start == -1 {
				start = offset
			}
			end := start + len(tok)
			result = append(result, &analysis.Token{
				Term:     []byte(tok),
				Start:    baseOffset + start,
				End:      baseOffset + end,
				Position: pos,
				Type:     analysis.AlphaNumeric,
			})
			pos++
			if end <= len(seg) {
				offset = end
			}
		}
		baseOffset += len(seg) + len(docmodel.ContentSeparator)
		if i < len(segments)-1 {
			pos++
		}
	}
	return result
}

func contentStopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &stopFilter{stopWords: BuildStopWordMap(DefaultContentStopWords)}, nil
}

type stopFilter struct {
	stopWords map[string]struct{}
}

func (f *stopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, tok := range input {
		if _, isStop := f.stopWords[string(tok.Term)]; !isStop {
			result = append(result, tok)
		}
	}
	return result
}
