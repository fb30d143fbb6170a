package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"tcpchat/internal/protocol"
)

// testclient joins the chat under the given name and floods broadcasts,
// logging everything it receives. Useful for exercising the server from a
// couple of shells: $ ./testclient localhost:51488 user123

func connect(addr, name string) net.Conn {
	log.Printf("connecting to %s", addr)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	hello := protocol.Message{
		TimeStamp: uint64(time.Now().Unix()),
		Command:   protocol.CMD_CLIENT_CONNECT,
		From:      name,
	}
	if err := protocol.WriteMessage(conn, &hello); err != nil {
		log.Fatal("connect:", err)
	}

	go (func() {
		for {
			data, err := protocol.ReadRecord(conn)
			if err != nil {
				log.Fatal("recv:", err)
			}
			var msg protocol.Message
			msg.Decode(data)
			log.Print("recv: ", name, " ", msg.From, ": ", msg.Msg)
		}
	})()
	go (func() {
		i := 0
		for {
			msg := protocol.Message{
				TimeStamp: uint64(time.Now().Unix()),
				Command:   protocol.CMD_BROADCAST_MESSAGE,
				From:      name,
				Msg:       fmt.Sprintf("m %d", i),
			}
			i++
			if err := protocol.WriteMessage(conn, &msg); err != nil {
				log.Fatal("send:", err)
			}
			time.Sleep(time.Millisecond * 2)
		}
	})()

	return conn
}

func main() {
	if len(os.Args) < 3 {
		log.Fatal("usage: testclient <host:port> <name>")
	}
	_ = connect(os.Args[1], os.Args[2])

	select {}
}
