// Command netlobby is a small interactive demo that drives a
// netconn.Connection from a terminal, for exercising the library
// end-to-end without writing a game.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	shellwords "github.com/kballard/go-shellquote"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/orbital-games/netlobby/config"
	"github.com/orbital-games/netlobby/netconn"
	"github.com/orbital-games/netlobby/transport"
	"github.com/orbital-games/netlobby/transport/memtransport"
)

func main() {
	app := cli.NewApp()
	app.Name = "netlobby"
	app.Usage = "drive a netlobby Connection interactively"
	app.Commands = []cli.Command{
		{
			Name:  "host",
			Usage: "start a host Connection",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config", Usage: "path to a ConnectionConfig YAML file", Required: true},
			},
			Action: runHost,
		},
		{
			Name:  "join",
			Usage: "start a client Connection",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config", Usage: "path to a ConnectionConfig YAML file", Required: true},
				cli.StringFlag{Name: "room", Usage: "5-character room id to join", Required: true},
			},
			Action: runJoin,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(sessionID string) *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		l = zap.NewNop()
	}
	return l.With(zap.String("session_id", sessionID))
}

// demoServerAddr is the well-known address of the in-process punchthrough
// server a demo session connects to. memtransport.Network only rendezvous
// peers registered against the same Network value, so this demo's host
// and join subcommands only see each other when invoked from the same
// process (see the package's _test.go files for multi-peer scenarios
// driven against one shared Network). A real deployment substitutes a
// transport backend that reaches an actual out-of-process rendezvous
// server at this address.
const demoServerAddr transport.PeerAddress = "punchserver:7777"

func runHost(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	sessionID := uuid.New().String()
	log := newLogger(sessionID)
	defer log.Sync()

	net := memtransport.NewNetwork(demoServerAddr)
	t := memtransport.NewTransport(net, transport.PeerAddress(fmt.Sprintf("host:%s", sessionID)))

	conn, err := netconn.New(cfg, t, demoServerAddr, log)
	if err != nil {
		return err
	}
	log.Info("host starting", zap.String("session_id", sessionID))
	return repl(conn, log)
}

func runJoin(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	sessionID := uuid.New().String()
	log := newLogger(sessionID)
	defer log.Sync()

	net := memtransport.NewNetwork(demoServerAddr)
	t := memtransport.NewTransport(net, transport.PeerAddress(fmt.Sprintf("client:%s", sessionID)))

	conn, err := netconn.NewClient(cfg, t, demoServerAddr, c.String("room"), log)
	if err != nil {
		return err
	}
	log.Info("client joining", zap.String("session_id", sessionID), zap.String("room", c.String("room")))
	return repl(conn, log)
}

// repl drives conn on a fixed tick while reading REPL commands from
// stdin: send <hex>, sendhost <hex>, start, status, quit.
func repl(conn *netconn.Connection, log *zap.Logger) error {
	rl, err := readline.New("netlobby> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	dispatch := func(data []byte) {
		log.Info("dispatch", zap.String("hex", hex.EncodeToString(data)))
	}

	for {
		select {
		case <-ticker.C:
			conn.Receive(dispatch)
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		args, err := shellwords.Split(line)
		if err != nil || len(args) == 0 {
			continue
		}
		switch args[0] {
		case "send", "sendhost":
			if len(args) < 2 {
				fmt.Println("usage: send <hex>")
				continue
			}
			data, err := hex.DecodeString(args[1])
			if err != nil {
				fmt.Println("invalid hex:", err)
				continue
			}
			if args[0] == "send" {
				_ = conn.Send(data)
			} else {
				_ = conn.SendToHost(data)
			}
		case "start":
			conn.StartGame()
		case "status":
			fmt.Printf("status=%s room=%s players=%d\n", conn.Status(), conn.RoomID(), conn.NumPlayers())
		case "quit":
			conn.ManualDisconnect()
			return nil
		default:
			fmt.Println("commands: send <hex> | sendhost <hex> | start | status | quit")
		}
	}
}
