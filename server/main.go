/******************************************************************************
 *
 *  Description :
 *
 *  Setup & initialization.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gorilla/handlers"
	"github.com/offchat/chat/server/logs"
	"github.com/offchat/chat/server/store"
	jcr "github.com/tinode/jsonco"

	_ "github.com/offchat/chat/server/store/mongodb"
	_ "github.com/offchat/chat/server/store/mysql"
	_ "github.com/offchat/chat/server/store/postgres"
)

const (
	// idleSessionTimeout defines duration of being idle before the session
	// is terminated.
	idleSessionTimeout = time.Second * 55

	// Base URL path for serving the streaming API.
	defaultAPIPath = "/"

	// Default maximum inbound message size.
	defaultMaxMessageSize = 1 << 19 // 512K

	// Default duration of a status post before it expires.
	defaultStatusTTL = 24 * time.Hour
)

// Build version number defined by the compiler:
//
//	-ldflags "-X main.buildstamp=value_to_assign_to_buildstamp"
var buildstamp = "undef"

var globals struct {
	// Live sessions.
	sessionStore *SessionStore
	// Users currently online.
	presence *PresenceRegistry
	// Calls being established or in progress.
	calls *CallCoordinator

	// Channel for stats updates, nil when stats are disabled.
	statsUpdate chan *varUpdate

	// Maximum message size allowed from the client.
	maxMessageSize int64

	// Lifetime of a status post.
	statusTTL time.Duration

	// Strict-Transport-Security header value.
	tlsStrictMaxAge string
}

type configType struct {
	// HTTP(S) address:port to listen on.
	Listen string `json:"listen"`
	// URL path for mounting the directory with static files.
	StaticMount string `json:"static_mount"`
	// Local path to static files. All files in this path are made accessible by HTTP.
	StaticData string `json:"static_data"`
	// URL path for exposing runtime stats.
	ExpvarPath string `json:"expvar"`
	// URL path for internal server status. Disabled if the path is empty.
	PprofPath string `json:"pprof_url"`
	// Maximum message size allowed from client, bytes.
	MaxMessageSize int64 `json:"max_message_size"`
	// Seconds the callee is given to answer before the call times out.
	CallEstablishmentTimeout int `json:"call_establishment_timeout"`
	// Hours a status post stays visible.
	StatusLifetime int `json:"status_lifetime"`
	// Configs for subsystems.
	Store json.RawMessage `json:"store_config"`
	TLS   *TLSConfig      `json:"tls"`
}

func main() {
	logs.Init()

	logs.Info.Printf("Server v%s pid %d started with processes: %d",
		buildstamp, os.Getpid(), runtime.GOMAXPROCS(runtime.NumCPU()))

	var configfile = flag.String("config", "offchat.conf", "Path to config file.")
	var staticPath = flag.String("static_data", "", "File path to directory with static files to be served.")
	var listenOn = flag.String("listen", "", "Override address and port to listen on for HTTP(S) clients.")
	var expvarPath = flag.String("expvar", "", "Override the path where runtime stats are exposed.")
	var resetDb = flag.Bool("reset_db", false, "Drop and recreate the database.")
	flag.Parse()

	curwd, err := os.Getwd()
	if err != nil {
		logs.Err.Fatal("Couldn't get current working directory: ", err)
	}

	*configfile = toAbsolutePath(curwd, *configfile)
	logs.Info.Printf("Using config from '%s'", *configfile)

	var config configType
	if file, err := os.Open(*configfile); err != nil {
		logs.Err.Fatal("Failed to read config file: ", err)
	} else {
		jr := jcr.New(file)
		if err = json.NewDecoder(jr).Decode(&config); err != nil {
			switch jerr := err.(type) {
			case *json.UnmarshalTypeError:
				lnum, cnum, _ := jr.LineAndChar(jerr.Offset)
				logs.Err.Fatalf("Unmarshall error in config file in %s at %d:%d (offset %d bytes): %s",
					jerr.Field, lnum, cnum, jerr.Offset, jerr.Error())
			case *json.SyntaxError:
				lnum, cnum, _ := jr.LineAndChar(jerr.Offset)
				logs.Err.Fatalf("Syntax error in config file at %d:%d (offset %d bytes): %s",
					lnum, cnum, jerr.Offset, jerr.Error())
			default:
				logs.Err.Fatal("Failed to parse config file: ", err)
			}
		}
		file.Close()
	}

	if *listenOn != "" {
		config.Listen = *listenOn
	}
	if *expvarPath != "" {
		config.ExpvarPath = *expvarPath
	}

	if *resetDb {
		logs.Info.Println("Database reset requested")
		if err := store.InitDb(0, config.Store, true); err != nil {
			logs.Err.Fatal("Failed to init DB: ", err)
		}
	} else if err := store.Open(0, config.Store); err != nil {
		logs.Err.Fatal("Failed to connect to DB: ", err)
	}
	logs.Info.Println("DB adapter opened:", store.GetAdapterName())
	defer func() {
		store.Close()
		logs.Info.Println("Closed database connection(s)")
		logs.Info.Println("All done, good bye")
	}()

	globals.sessionStore = NewSessionStore()
	globals.presence = NewPresenceRegistry()
	globals.calls = NewCallCoordinator(time.Duration(config.CallEstablishmentTimeout) * time.Second)

	globals.maxMessageSize = config.MaxMessageSize
	if globals.maxMessageSize <= 0 {
		globals.maxMessageSize = defaultMaxMessageSize
	}

	globals.statusTTL = time.Duration(config.StatusLifetime) * time.Hour
	if globals.statusTTL <= 0 {
		globals.statusTTL = defaultStatusTTL
	}

	mux := http.NewServeMux()

	// Serve static content from the directory in -static_data flag if that's
	// available, otherwise assume '<current dir>/static'.
	staticContent := *staticPath
	if staticContent == "" {
		staticContent = config.StaticData
	}
	if staticContent == "" {
		staticContent = filepath.Join(curwd, "static")
	}
	staticMount := config.StaticMount
	if staticMount == "" {
		staticMount = "/x/"
	}
	mux.Handle(staticMount, http.StripPrefix(staticMount, hstsHandler(http.FileServer(http.Dir(staticContent)))))
	logs.Info.Printf("Serving static content from '%s' at '%s'", staticContent, staticMount)

	// Handle websocket clients.
	mux.HandleFunc(defaultAPIPath+"v0/channels", serveWebSocket)
	// Reject unknown paths.
	mux.HandleFunc("/", serve404)

	statsInit(mux, config.ExpvarPath)
	servePprof(mux, config.PprofPath)

	if err = listenAndServe(config.Listen, handlers.CombinedLoggingHandler(os.Stdout, mux),
		config.TLS, signalHandler()); err != nil {
		logs.Err.Fatal(err)
	}
}

// toAbsolutePath converts a relative filepath to absolute.
func toAbsolutePath(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(base, path))
}
