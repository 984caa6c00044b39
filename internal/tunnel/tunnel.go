// Package tunnel provides the SSH local port forward used to reach a
// database that only listens on a remote host. The tunnel is a scoped
// resource: opened before the database connection, closed after it.
package tunnel

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

const dialTimeout = 10 * time.Second

// Tunnel forwards connections from a local listener to the configured
// remote address through an SSH client connection.
type Tunnel struct {
	client *ssh.Client
	ln     net.Listener
	remote string
}

// Open dials the SSH host with public-key auth and starts forwarding a local
// listener to the remote bind address. Failures wrap ErrConnectivity.
func Open(cfg types.SSHConfig) (*Tunnel, error) {
	key, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w: %v", types.ErrConnectivity, err)
	}

	var signer ssh.Signer
	if cfg.KeyPassphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(cfg.KeyPassphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(key)
	}
	if err != nil {
		return nil, fmt.Errorf("parse ssh key: %w: %v", types.ErrConnectivity, err)
	}

	clientConfig := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{ssh.PublicKeys(signer)},
		// Single-operator maintenance tool; host key pinning is left to
		// the operator's known_hosts review of the bastion.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	client, err := ssh.Dial("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("dial ssh %s: %w: %v", cfg.Host, types.ErrConnectivity, err)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.LocalPort))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("listen local: %w: %v", types.ErrConnectivity, err)
	}

	t := &Tunnel{
		client: client,
		ln:     ln,
		remote: net.JoinHostPort(cfg.RemoteHost, strconv.Itoa(cfg.RemotePort)),
	}
	go t.serve()
	return t, nil
}

// Addr returns the local address database clients should connect to.
func (t *Tunnel) Addr() string {
	return t.ln.Addr().String()
}

// Close stops the listener and tears down the SSH connection.
func (t *Tunnel) Close() error {
	lnErr := t.ln.Close()
	clientErr := t.client.Close()
	if lnErr != nil {
		return lnErr
	}
	return clientErr
}

func (t *Tunnel) serve() {
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			// Listener closed; the invocation is over.
			return
		}
		go t.forward(conn)
	}
}

func (t *Tunnel) forward(local net.Conn) {
	remote, err := t.client.Dial("tcp", t.remote)
	if err != nil {
		local.Close()
		return
	}

	go func() {
		defer local.Close()
		defer remote.Close()
		io.Copy(remote, local)
	}()
	io.Copy(local, remote)
	local.Close()
	remote.Close()
}
