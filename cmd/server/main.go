package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"tcpchat/internal/server"
)

func main() {
	port := uint16(server.DEFAULT_PORT)
	if len(os.Args) > 1 {
		if len(os.Args) != 2 {
			fmt.Println("usage: server [port]")
			os.Exit(1)
		}
		p, err := strconv.ParseUint(os.Args[1], 10, 16)
		if err != nil || p == 0 {
			fmt.Println("invalid port")
			os.Exit(1)
		}
		port = uint16(p)
	}

	if err := server.New(port).Run(); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
