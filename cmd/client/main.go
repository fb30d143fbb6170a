package main

import (
	"net"
	"os"
	"strconv"
	"unicode"

	"tcpchat/internal/client"
	"tcpchat/internal/console"
)

func main() {
	os.Exit(run())
}

func run() int {
	con := console.New()
	if err := con.Setup(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}
	defer con.Restore()

	con.Write("Welcome to the chat\n", console.White)

	name, ok := promptName(con)
	if !ok {
		return 1
	}
	addr, ok := promptAddr(con)
	if !ok {
		return 1
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		con.Write("Error: "+err.Error()+"\n", console.Red)
		return 1
	}
	defer conn.Close()

	if err := client.New(con, conn, name).Run(); err != nil {
		con.Write("Error: "+err.Error()+"\n", console.Red)
		return 1
	}
	return 0
}

func promptName(con *console.Console) (string, bool) {
	for {
		con.Write("Enter your name: ", console.White)
		name, ok := con.ReadLine()
		if !ok {
			return "", false
		}
		if name != "" && isAlnum(name) {
			return name, true
		}
		con.Write("Invalid name. Name can consist only of letters and numbers\n", console.Red)
	}
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func promptAddr(con *console.Console) (string, bool) {
	var ip string
	for {
		con.Write("Enter server ip address: ", console.White)
		s, ok := con.ReadLine()
		if !ok {
			return "", false
		}
		if p := net.ParseIP(s); p != nil && p.To4() != nil {
			ip = s
			break
		}
		con.Write("Incorrect address\n", console.Red)
	}
	for {
		con.Write("Enter server port: ", console.White)
		s, ok := con.ReadLine()
		if !ok {
			return "", false
		}
		if port, err := strconv.Atoi(s); err == nil && port >= 1 && port <= 65535 {
			return net.JoinHostPort(ip, s), true
		}
		con.Write("Invalid port\n", console.Red)
	}
}
