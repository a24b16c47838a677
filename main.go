package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/foxcpp/vsu_timetable/ttsource"
)

var config Config

type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type TelegramConfig struct {
	Token       string  `yaml:"token"`
	NotifyChats []int64 `yaml:"notify_chats"`
}

// Messages are pyfmt templates for notifications.
type Messages struct {
	LoadSummary string `yaml:"load_summary"`
	FileFailed  string `yaml:"file_failed"`
}

type Config struct {
	DataDir       string   `yaml:"data_dir"`
	FacultiesURL  string   `yaml:"faculties_url"`
	BaseURL       string   `yaml:"base_url"`
	FacultiesFile string   `yaml:"faculties_file"`
	Faculties     []string `yaml:"faculties"`
	Form          string   `yaml:"form"`
	Workers       int      `yaml:"workers"`
	ExportDir     string   `yaml:"export_dir"`

	DB DBConfig `yaml:"db"`

	Listen           string `yaml:"listen"`
	ReloadKeyHash    string `yaml:"reload_key_hash"`
	UpdateEveryHours uint64 `yaml:"update_every_hours"`

	Telegram TelegramConfig `yaml:"telegram"`
	Messages Messages       `yaml:"messages"`
}

func defaultConfig() Config {
	return Config{
		DataDir:       "data",
		FacultiesURL:  ttsource.DefaultFacultiesURL,
		BaseURL:       ttsource.DefaultBaseURL,
		FacultiesFile: "faculties.json",
		Form:          "all",
		Workers:       1,
		ExportDir:     "export",
		DB:            DBConfig{Driver: "sqlite3", DSN: "timetable.db"},
		Listen:        ":8080",
		Messages: Messages{
			LoadSummary: "*Загрузка {id}*\nФайлов: {files}, с ошибками: {failed}\n" +
				"Групп: {groups}, пар: {pairs}, экзаменов и зачетов: {exams}",
			FileFailed: "`{path}`: {err}",
		},
	}
}

// readConfig reads path over the defaults. A missing file leaves the
// defaults as is.
func readConfig(path string) (Config, error) {
	conf := defaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Warnf("Config file %s not found, using defaults", path)
		return conf, nil
	}
	if err != nil {
		return conf, errors.Wrap(err, "read")
	}
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return conf, errors.Wrap(err, "decode")
	}
	return conf, nil
}

func (c Config) source() *ttsource.Source {
	return &ttsource.Source{FacultiesURL: c.FacultiesURL, BaseURL: c.BaseURL}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [-config loader.yml] <command>

Commands:
  download  fetch schedule spreadsheets into the data directory
  load      parse the data directory and upload records to the database
  update    download, then load
  export    parse the data directory and write CSV files
  serve     run the query API (and periodic updates if configured)
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	confPath := flag.String("config", "loader.yml", "path to the config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = usage
	flag.Parse()

	if *debug {
		log.SetLevel(log.LevelDebug)
	} else {
		log.SetLevel(log.LevelInfo)
	}

	var err error
	config, err = readConfig(*confPath)
	if err != nil {
		log.Fatalf("Failed to read config file (%s): %v", *confPath, err)
	}

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	switch cmd := flag.Arg(0); cmd {
	case "download":
		err = downloadCmd()
	case "load":
		err = withDB(func(db *DB) error {
			_, err := runLoad(db, newNotifier(config.Telegram))
			return err
		})
	case "update":
		err = withDB(func(db *DB) error {
			return updateCmd(db, newNotifier(config.Telegram))
		})
	case "export":
		err = exportCmd(config.DataDir, config.ExportDir)
	case "serve":
		err = withDB(serveCmd)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", flag.Arg(0), err)
	}
}

func withDB(f func(db *DB) error) error {
	db, err := NewDB(config.DB.Driver, config.DB.DSN)
	if err != nil {
		return errors.Wrap(err, "open db")
	}
	defer db.Close()
	return f(db)
}
