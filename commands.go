package main

import (
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/jasonlvhit/gocron"
	"github.com/pkg/errors"

	"github.com/foxcpp/vsu_timetable/ttparser"
	"github.com/foxcpp/vsu_timetable/ttsource"
)

// loadLck serializes updates and loads started by the scheduler and the API.
// Downloads clear the data directory, so they run under it too.
var loadLck sync.Mutex

// download is swapped in tests.
var download = downloadCmd

func downloadCmd() error {
	src := config.source()
	faculties, err := src.CachedFaculties(config.FacultiesFile)
	if err != nil {
		return errors.Wrap(err, "faculties")
	}
	faculties = ttsource.FilterFaculties(faculties, config.Faculties)
	if len(faculties) == 0 {
		return errors.New("no faculties selected")
	}

	schedules, err := src.Schedules(faculties, config.Form)
	if err != nil {
		return errors.Wrap(err, "schedules")
	}
	log.Infof("Found %d schedules", len(schedules))

	if err := ttsource.ClearDataDir(config.DataDir); err != nil {
		return err
	}
	return src.Download(schedules, config.DataDir)
}

func parseAll(dataDir string) (ttparser.Summary, error) {
	files, err := ttparser.ListFiles(dataDir)
	if err != nil {
		return ttparser.Summary{}, err
	}
	log.Infof("Parsing %d files from %s...", len(files), dataDir)
	batch := ttparser.Batch{Workers: config.Workers}
	return batch.Run(files), nil
}

// runLoad parses the data directory and uploads the records.
func runLoad(db *DB, n *Notifier) (Load, error) {
	loadLck.Lock()
	defer loadLck.Unlock()
	return load(db, n)
}

// load is runLoad for callers holding loadLck.
func load(db *DB, n *Notifier) (Load, error) {
	l := Load{ID: uuid.New().String(), StartedAt: time.Now().In(timezone)}
	sum, err := parseAll(config.DataDir)
	if err != nil {
		return l, err
	}

	if err := db.InsertGroups(sum.Groups); err != nil {
		return l, errors.Wrap(err, "upload groups")
	}
	if err := db.ReplacePairs(sum.Pairs); err != nil {
		return l, errors.Wrap(err, "upload pairs")
	}
	if err := db.ReplaceExams(sum.Exams); err != nil {
		return l, errors.Wrap(err, "upload exams")
	}

	l.FinishedAt = time.Now().In(timezone)
	l.Files = sum.Files
	l.FailedFiles = len(sum.Failed)
	l.Groups = len(sum.Groups)
	l.Pairs = len(sum.Pairs)
	l.Exams = len(sum.Exams)
	if err := db.AddLoad(l); err != nil {
		return l, err
	}

	log.Infof("Load %s: %d files (%d failed), %d groups, %d pairs, %d exams/credits",
		l.ID, l.Files, l.FailedFiles, l.Groups, l.Pairs, l.Exams)
	n.LoadSummary(l, sum.Failed)
	return l, nil
}

func updateCmd(db *DB, n *Notifier) error {
	loadLck.Lock()
	defer loadLck.Unlock()

	if err := download(); err != nil {
		return errors.Wrap(err, "download")
	}
	_, err := load(db, n)
	return err
}

func exportCmd(dataDir, exportDir string) error {
	sum, err := parseAll(dataDir)
	if err != nil {
		return err
	}
	for _, f := range sum.Failed {
		log.Warnf("Skipped %s: %v", f.File.Path, f.Err)
	}
	return writeCSV(exportDir, sum.Result)
}

func serveCmd(db *DB) error {
	n := newNotifier(config.Telegram)
	cache := NewCache(db)
	defer cache.Close()

	reload := func() (Load, error) {
		l, err := runLoad(db, n)
		cache.Purge()
		return l, err
	}

	if config.UpdateEveryHours != 0 {
		sched := gocron.NewScheduler()
		sched.Every(config.UpdateEveryHours).Hours().Do(func() {
			if err := updateCmd(db, n); err != nil {
				log.Errorf("Scheduled update failed: %v", err)
				n.Broadcast("Scheduled update failed: " + err.Error())
			}
			cache.Purge()
		})
		stop := sched.Start()
		defer func() { stop <- true }()
		log.Infof("Updating every %d hours", config.UpdateEveryHours)
	}

	srv := &http.Server{
		Addr:    config.Listen,
		Handler: newRouter(db, cache, reload, config.ReloadKeyHash),
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGHUP, os.Interrupt)

	log.Infof("Listening on %s", config.Listen)
	select {
	case s := <-sig:
		log.Infof("%v; stopping...", s)
		return srv.Close()
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	}
}
