// Command chat-client is a minimal line client for the chat server.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/andy6609/room-chat-server/internal/transport"
)

func main() {
	addr := flag.StringP("addr", "a", "localhost:5001", "chat server address")
	timeout := flag.Duration("timeout", 10*time.Second, "dial timeout")
	flag.Parse()

	if err := run(*addr, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "chat-client: %v\n", err)
		os.Exit(1)
	}
}

func run(addr string, timeout time.Duration) error {
	nc, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	conn := transport.NewTCP(nc)
	defer conn.Close()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		fmt.Printf("Connected to %s (type /help for commands, Ctrl-D to leave)\n", addr)
	}

	recvDone := make(chan error, 1)
	go func() {
		for {
			line, err := conn.ReadLine()
			if err != nil {
				recvDone <- err
				return
			}
			fmt.Println(line)
		}
	}()

	sendDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := conn.WriteLine(scanner.Text()); err != nil {
				sendDone <- err
				return
			}
		}
		sendDone <- scanner.Err()
	}()

	select {
	case err := <-recvDone:
		if transport.IsClosed(err) {
			if interactive {
				fmt.Println("Connection closed by server.")
			}
			return nil
		}
		return err
	case err := <-sendDone:
		if err != nil && !transport.IsClosed(err) {
			return err
		}
		if !interactive {
			// piped input: give the server a moment to answer the last lines
			nc.SetReadDeadline(time.Now().Add(time.Second)) //nolint:errcheck
			<-recvDone
		}
		return nil
	}
}
