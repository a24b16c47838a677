package ttsource

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
	"github.com/slongfield/pyfmt"
)

const (
	DefaultFacultiesURL = `https://vsu.by/studentam/raspisanie-zanyatij.html`
	DefaultBaseURL      = `https://vsu.by{urn}`
)

var titleJunk = regexp.MustCompile(`[^А-Яа-я]\s+`)

type Faculty struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Short string `json:"short"`
}

// Schedule is a spreadsheet link found on a faculty page.
type Schedule struct {
	FacultyName  string
	FacultyShort string
	URL          string
	Form         string
	Title        string
}

func (s Schedule) String() string {
	return s.FacultyShort + " " + s.Form + " : " + s.Title
}

// Path is where the schedule is stored under dataDir. The batch parser
// recovers faculty and form from the two directories.
func (s Schedule) Path(dataDir string) string {
	title := strings.TrimSuffix(strings.TrimSpace(s.Title), ".xlsx")
	title = strings.NewReplacer("/", "_", `\`, "_").Replace(title)
	return filepath.Join(dataDir, s.FacultyName, s.Form, title+".xlsx")
}

type Source struct {
	FacultiesURL string
	// BaseURL is a pyfmt template with an {urn} field for site-relative links.
	BaseURL string
	Client  *http.Client
}

func (s *Source) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}

func (s *Source) absURL(href string) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return pyfmt.Must(base, map[string]interface{}{"urn": href})
}

func (s *Source) get(url string) (*http.Response, error) {
	resp, err := s.client().Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", url)
	}
	if resp.StatusCode != 200 {
		resp.Body.Close()
		return nil, errors.New("HTTP status " + resp.Status + " for " + url)
	}
	return resp, nil
}

func (s *Source) document(url string) (*goquery.Document, error) {
	resp, err := s.get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "new document")
	}
	return doc, nil
}

// Faculties lists faculties that have a schedule page.
func (s *Source) Faculties() ([]Faculty, error) {
	url := s.FacultiesURL
	if url == "" {
		url = DefaultFacultiesURL
	}
	doc, err := s.document(url)
	if err != nil {
		return nil, errors.Wrap(err, "faculties page")
	}

	var faculties []Faculty
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, "/universitet/fakultety") || !strings.Contains(href, "/raspisanie.html") {
			return
		}
		title := strings.TrimSpace(titleJunk.ReplaceAllString(a.Text(), ""))
		faculties = append(faculties, Faculty{
			Title: title,
			URL:   s.absURL(href),
			Short: shortTitle(title),
		})
	})
	return faculties, nil
}

// shortTitle builds an abbreviation from the first letters of the words.
func shortTitle(title string) string {
	var b strings.Builder
	for _, word := range strings.Fields(strings.ReplaceAll(title, "-", " ")) {
		for _, r := range word {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}

// Schedules collects spreadsheet links of the given faculties. form is "до",
// "зо" or "all".
func (s *Source) Schedules(faculties []Faculty, form string) ([]Schedule, error) {
	var schedules []Schedule
	for _, faculty := range faculties {
		log.Infof("Looking for schedules of %s...", faculty.Title)
		doc, err := s.document(faculty.URL)
		if err != nil {
			return nil, errors.Wrapf(err, "faculty %s", faculty.Title)
		}

		doc.Find("a").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			text := a.Text()
			if !ok || href == "" || !strings.Contains(text, "Расписание") {
				return
			}
			if !strings.Contains(text, ".xlsx") && !strings.Contains(href, ".xlsx") {
				return
			}

			detected := "до"
			if strings.Contains(strings.ToLower(href), "зфпо") {
				detected = "зо"
			}
			if form != "all" && form != "" && detected != form {
				return
			}
			schedules = append(schedules, Schedule{
				FacultyName:  faculty.Title,
				FacultyShort: faculty.Short,
				URL:          s.absURL(href),
				Form:         detected,
				Title:        text,
			})
		})
	}
	return schedules, nil
}

// Download stores every schedule under dataDir. A schedule that fails is
// logged and skipped; the error is returned only if nothing was downloaded.
func (s *Source) Download(schedules []Schedule, dataDir string) error {
	var lastErr error
	failed := 0
	for _, sch := range schedules {
		log.Infof("Downloading %s...", sch)
		if err := s.download(sch, sch.Path(dataDir)); err != nil {
			lastErr = errors.Wrapf(err, "download %s", sch)
			log.Errorf("ERROR: %v", lastErr)
			failed++
		}
	}
	if failed != 0 && failed == len(schedules) {
		return errors.Wrapf(lastErr, "all %d downloads failed", failed)
	}
	return nil
}

func (s *Source) download(sch Schedule, path string) error {
	resp, err := s.get(sch.URL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return errors.Wrap(err, "write")
	}
	return f.Close()
}

// ClearDataDir removes previously downloaded schedules.
func ClearDataDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(err, "remove data dir")
	}
	return errors.Wrap(os.MkdirAll(dir, 0755), "create data dir")
}
