package ttparser

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
)

// File is a downloaded schedule stored as <root>/<faculty>/<form>/<title>.xlsx.
type File struct {
	Path    string
	Faculty string
	Form    string
}

// ListFiles finds schedule workbooks under root. Files at any other depth are
// ignored.
func ListFiles(root string) ([]File, error) {
	var files []File
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx", ".xls":
		default:
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(rel, string(filepath.Separator))
		if len(parts) != 3 {
			return nil
		}
		files = append(files, File{Path: path, Faculty: parts[0], Form: parts[1]})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", root)
	}
	return files, nil
}

type Result struct {
	Groups []Group
	Pairs  []Pair
	Exams  []ExamCredit
}

func (r *Result) append(o Result) {
	r.Groups = append(r.Groups, o.Groups...)
	r.Pairs = append(r.Pairs, o.Pairs...)
	r.Exams = append(r.Exams, o.Exams...)
}

// ParseSheet detects the layout of one sheet and runs the matching extractor.
// A sheet without recognisable groups gives an empty result.
func ParseSheet(sheet Sheet, faculty, form string) (Result, SheetKind, error) {
	layout := DetectLayout(sheet, faculty, form)
	if len(layout.Groups) == 0 {
		return Result{}, layout.Kind, nil
	}

	res := Result{Groups: layout.Groups}
	var err error
	if layout.Kind == Weekly {
		res.Pairs, err = ExtractPairs(sheet, layout)
	} else {
		res.Exams, err = ExtractExamCredits(sheet, layout)
	}
	if err != nil {
		return Result{}, layout.Kind, err
	}
	return res, layout.Kind, nil
}

// FileResult holds either the records of one file or the reason it was
// skipped.
type FileResult struct {
	File File
	Kind SheetKind
	Result
	Err error
}

type Summary struct {
	Result
	Files  int
	Failed []FileResult
}

type Batch struct {
	// Workers limits the number of files parsed at once. Values below 2 mean
	// sequential processing.
	Workers int
	// Open defaults to OpenSheet.
	Open func(path string) (Sheet, error)
}

// Run parses every file and returns the deduplicated aggregate. Errors never
// abort the batch; failed files are listed in Summary.Failed.
func (b *Batch) Run(files []File) Summary {
	results := make([]FileResult, len(files))

	workers := b.Workers
	if workers < 1 {
		workers = 1
	}
	throttle := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		throttle <- struct{}{}
		go func(i int, file File) {
			defer wg.Done()
			defer func() { <-throttle }()
			results[i] = b.parseFile(file)
		}(i, file)
	}
	wg.Wait()

	sum := Summary{Files: len(files)}
	for _, res := range results {
		if res.Err != nil {
			log.Errorf("ERROR while parsing %s: %v", res.File.Path, res.Err)
			sum.Failed = append(sum.Failed, res)
			continue
		}
		sum.append(res.Result)
	}
	sum.Result = Dedup(sum.Result)
	return sum
}

func (b *Batch) parseFile(file File) (res FileResult) {
	res.File = file
	defer func() {
		if r := recover(); r != nil {
			res = FileResult{File: file, Err: errors.Errorf("panic: %v", r)}
		}
	}()

	open := b.Open
	if open == nil {
		open = OpenSheet
	}
	sheet, err := open(file.Path)
	if err != nil {
		res.Err = errors.Wrap(err, "open")
		return res
	}

	res.Result, res.Kind, res.Err = ParseSheet(sheet, file.Faculty, file.Form)
	if res.Err == nil {
		log.Debugf("%s: %s, %d groups, %d pairs, %d exams/credits", file.Path, res.Kind,
			len(res.Groups), len(res.Pairs), len(res.Exams))
	}
	return res
}

// Dedup drops repeated records keeping the first occurrence of each.
func Dedup(r Result) Result {
	return Result{
		Groups: unique(r.Groups, Group.Key),
		Pairs:  unique(r.Pairs, func(p Pair) Pair { return p }),
		Exams:  unique(r.Exams, func(e ExamCredit) ExamCredit { return e }),
	}
}

func unique[K comparable, V any](items []V, key func(V) K) []V {
	seen := orderedmap.NewOrderedMap[K, V]()
	for _, item := range items {
		k := key(item)
		if _, ok := seen.Get(k); !ok {
			seen.Set(k, item)
		}
	}

	res := make([]V, 0, seen.Len())
	for el := seen.Front(); el != nil; el = el.Next() {
		res = append(res, el.Value)
	}
	return res
}
