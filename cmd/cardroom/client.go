package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/openuno/cardroom/internal/server"
	"github.com/openuno/cardroom/internal/uno"
)

// ClientCmd is a line-oriented lobby and game client, mostly useful for
// poking at a running server.
type ClientCmd struct {
	Server   string `kong:"default='ws://localhost:8080/ws',help='Server WebSocket URL'"`
	Identity string `kong:"required,short='i',help='Identity to authenticate as'"`
}

// clientState tracks what the client knows about the game it watches.
type clientState struct {
	mu       sync.Mutex
	code     string
	seat     int
	lastGame *uno.GameState
}

func (cs *clientState) setGame(code string, state uno.GameState, identity string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.code = code
	cs.lastGame = &state
	cs.seat = -1
	for i, p := range state.Players {
		if strings.EqualFold(p.Name, identity) {
			cs.seat = i
			break
		}
	}
}

func (cs *clientState) cardAt(n int) (uno.Card, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.lastGame == nil || cs.seat < 0 {
		return uno.Card{}, false
	}
	hand := cs.lastGame.Players[cs.seat].Hand
	if n < 1 || n > len(hand) {
		return uno.Card{}, false
	}
	return hand[n-1], true
}

func (cs *clientState) current() (string, int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.code, cs.seat
}

func (c *ClientCmd) Run() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.Server, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.Server, err)
	}
	defer func() { _ = conn.Close() }()

	send := func(t server.MessageType, data interface{}) error {
		msg, err := server.NewMessage(t, data)
		if err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	}

	if err := send(server.MessageTypeAuth, server.AuthData{Identity: c.Identity}); err != nil {
		return err
	}

	styles := uno.NewDisplayStyles()
	state := &clientState{seat: -1}
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			var msg server.Message
			if err := conn.ReadJSON(&msg); err != nil {
				fmt.Println("connection closed:", err)
				return
			}
			printMessage(&msg, state, styles, c.Identity)
		}
	}()

	fmt.Println("commands: list | create [game] | join CODE | start CODE | leave CODE | delete CODE | mine | sub CODE | play N [color] | draw | declare | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-done:
			return nil
		default:
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "list":
			err = send(server.MessageTypeListSessions, server.ListSessionsData{})
		case "create":
			gameType := ""
			if len(fields) > 1 {
				gameType = fields[1]
			}
			err = send(server.MessageTypeCreateSession, server.CreateSessionData{GameType: gameType})
		case "join":
			if len(fields) < 2 {
				fmt.Println("usage: join CODE")
				continue
			}
			err = send(server.MessageTypeJoinSession, server.JoinSessionData{Code: fields[1]})
		case "start":
			if len(fields) < 2 {
				fmt.Println("usage: start CODE")
				continue
			}
			err = send(server.MessageTypeActivateSession, server.ActivateSessionData{Code: fields[1]})
		case "leave":
			if len(fields) < 2 {
				fmt.Println("usage: leave CODE")
				continue
			}
			err = send(server.MessageTypeLeaveSession, server.LeaveSessionData{Code: fields[1]})
		case "delete":
			if len(fields) < 2 {
				fmt.Println("usage: delete CODE")
				continue
			}
			err = send(server.MessageTypeDeleteSession, server.DeleteSessionData{Code: fields[1]})
		case "mine":
			err = send(server.MessageTypeMySessions, struct{}{})
		case "sub":
			if len(fields) < 2 {
				fmt.Println("usage: sub CODE")
				continue
			}
			err = send(server.MessageTypeSubscribeGame, server.SubscribeGameData{Code: fields[1]})
		case "play":
			if len(fields) < 2 {
				fmt.Println("usage: play N [red|green|blue|yellow]")
				continue
			}
			n, convErr := strconv.Atoi(fields[1])
			if convErr != nil {
				fmt.Println("usage: play N [color]")
				continue
			}
			card, ok := state.cardAt(n)
			if !ok {
				fmt.Println("no such card; subscribe to a game first")
				continue
			}
			code, _ := state.current()
			action := server.GameActionData{Code: code, Kind: uno.ActionPlay, CardID: card.ID}
			if len(fields) > 2 {
				action.ChosenColor = uno.Color(fields[2])
			}
			err = send(server.MessageTypeGameAction, action)
		case "draw":
			code, _ := state.current()
			err = send(server.MessageTypeGameAction, server.GameActionData{Code: code, Kind: uno.ActionDraw})
		case "declare":
			code, _ := state.current()
			err = send(server.MessageTypeGameAction, server.GameActionData{Code: code, Kind: uno.ActionDeclare})
		case "quit", "exit":
			return nil
		default:
			fmt.Println("unknown command:", fields[0])
			continue
		}

		if err != nil {
			return err
		}
	}

	return scanner.Err()
}

func printMessage(msg *server.Message, state *clientState, styles *uno.DisplayStyles, identityName string) {
	switch msg.Type {
	case server.MessageTypeAuthResponse:
		var data server.AuthResponseData
		if json.Unmarshal(msg.Data, &data) == nil {
			if data.Success {
				fmt.Printf("authenticated as %s\n", data.Identity)
			} else {
				fmt.Printf("auth failed: %s\n", data.Error)
			}
		}
	case server.MessageTypeSessionList:
		var data server.SessionListData
		if json.Unmarshal(msg.Data, &data) == nil {
			fmt.Printf("open sessions (%d):\n", len(data.Sessions))
			for _, s := range data.Sessions {
				fmt.Printf("  %s  %s  %s  %d/%d\n", s.Code, s.GameType, s.Owner, s.ParticipantCount, s.Capacity)
			}
		}
	case server.MessageTypeMySessionList:
		var data server.MySessionListData
		if json.Unmarshal(msg.Data, &data) == nil {
			for _, s := range data.Sessions {
				role := "participant"
				if s.IsOwner {
					role = "owner"
				}
				fmt.Printf("  %s  %s (%s)\n", s.Code, s.Owner, role)
			}
		}
	case server.MessageTypeSessionCreated, server.MessageTypeSessionJoined,
		server.MessageTypeSessionLeft, server.MessageTypeSessionDeleted:
		var data server.SessionAckData
		if json.Unmarshal(msg.Data, &data) == nil {
			fmt.Printf("%s: %s\n", msg.Type, data.Code)
		}
	case server.MessageTypeSessionActivated:
		var data server.SessionActivatedData
		if json.Unmarshal(msg.Data, &data) == nil {
			fmt.Printf("session %s started (%s), subscribe with: sub %s\n", data.Code, data.GameType, data.Code)
		}
	case server.MessageTypeParticipantLeft:
		var data server.ParticipantLeftData
		if json.Unmarshal(msg.Data, &data) == nil {
			fmt.Printf("%s left session %s\n", data.Identity, data.Code)
		}
	case server.MessageTypeGameState:
		var data server.GameStateData
		if json.Unmarshal(msg.Data, &data) == nil {
			state.setGame(data.Code, data.State, identityName)
			_, seat := state.current()
			fmt.Print(styles.RenderState(data.State, seat))
		}
	case server.MessageTypeError:
		var data server.ErrorData
		if json.Unmarshal(msg.Data, &data) == nil {
			fmt.Printf("error [%s]: %s\n", data.Code, data.Message)
		}
	default:
		fmt.Printf("unhandled message type: %s\n", msg.Type)
	}
}
