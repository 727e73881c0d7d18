// Command tigerctl connects to a Tiger-class motion controller over a serial
// port, discovers the cards on its bus, and optionally serves debug HTTP
// routes for poking at the controller and its session database.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/AllenNeuralDynamics/voxel-sub006/internal/config"
	"github.com/AllenNeuralDynamics/voxel-sub006/internal/db"
	"github.com/AllenNeuralDynamics/voxel-sub006/internal/serialmux"
	"github.com/AllenNeuralDynamics/voxel-sub006/internal/tiger"
)

var (
	configPath = flag.String("config", "", "Path to a JSON config file")
	portPath   = flag.String("port", "/dev/ttyUSB0", "Serial port path")
	listen     = flag.String("listen", "", "HTTP debug listen address (empty disables the server)")
	devMode    = flag.Bool("dev", false, "Run against a scripted mock controller instead of real hardware")
	dbPath     = flag.String("db", "tiger.db", "Session database path (empty disables persistence)")
	rawCommand = flag.String("command", "", "Send one raw command line after discovery and print the reply")
)

// devScript answers like a two-card Tiger bus for offline development.
var devScript = map[string]string{
	"WHO": "At 1: X Y\r\n" +
		"FW: 3.39\r\n" +
		"BOARD: TG-1000\r\n" +
		"SCAN MODULE\r\n" +
		"At 2:\r\n",
	"W X? Y?": ":A 0.000000 0.000000",
	"/":       "N",
}

func main() {
	flag.Parse()

	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	var transport *tigerTransport
	if *devMode {
		port := serialmux.NewScriptedPort(devScript)
		tr, err := serialmux.NewTransport(port, cfg.ReplyTimeout())
		if err != nil {
			log.Fatalf("failed to create mock transport: %v", err)
		}
		transport = &tigerTransport{tr, "mock"}
	} else {
		path := cfg.Port(*portPath)
		tr, err := serialmux.NewRealTransport(path, cfg.PortOptions(), cfg.ReplyTimeout())
		if err != nil {
			log.Fatalf("failed to open serial port %s: %v", path, err)
		}
		transport = &tigerTransport{tr, path}
	}
	defer transport.Close()

	controller := tiger.NewController(transport.Transport)

	database, session := openDatabase(cfg, transport.path)
	if database != nil {
		defer database.Close()
	}

	cards, err := controller.Discover()
	if err != nil {
		log.Fatalf("discovery failed: %v", err)
	}
	for _, card := range cards {
		fmt.Printf("card %d: axes=%v fw=%q board=%q mods=%d\n",
			card.Addr, card.Axes, card.FW, card.Board, len(card.Mods))
	}
	if database != nil {
		if err := database.RecordSnapshot(session, cards); err != nil {
			log.Printf("failed to record snapshot: %v", err)
		}
	}

	if *rawCommand != "" {
		reply, err := controller.Raw(*rawCommand)
		if err != nil {
			log.Fatalf("command %q failed: %v", *rawCommand, err)
		}
		fmt.Println(reply)
		if database != nil {
			kind := tiger.DecodeReply([]byte(reply)).Kind
			if err := database.RecordCommand(session, *rawCommand, reply, kind); err != nil {
				log.Printf("failed to log command: %v", err)
			}
		}
	}

	addr := *listen
	if addr == "" && cfg.Listen != nil {
		addr = *cfg.Listen
	}
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	transport.AttachAdminRoutes(mux)
	if database != nil {
		database.AttachAdminRoutes(mux)
	}

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Printf("debug server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("debug server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Print("shutting down")
	server.Close()
}

// tigerTransport pairs a transport with the port path it was opened on.
type tigerTransport struct {
	*serialmux.Transport
	path string
}

func openDatabase(cfg *config.Config, port string) (*db.DB, string) {
	path := *dbPath
	if cfg.DatabasePath != nil {
		path = *cfg.DatabasePath
	}
	if path == "" {
		return nil, ""
	}
	database, err := db.NewDB(path)
	if err != nil {
		log.Fatalf("failed to open database %s: %v", path, err)
	}
	session, err := database.StartSession(port)
	if err != nil {
		log.Fatalf("failed to start session: %v", err)
	}
	return database, session
}
