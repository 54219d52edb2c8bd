package util

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marco79423/kb/pkg/model"
	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/xerrors"
)

const defaultSSHPort = 22

// NewSSHTransport 不依賴本機 ssh / scp，直接以 SSH 連線執行指令並透過 SFTP 上傳
func NewSSHTransport(cfg model.TransportConfig, logger *zap.Logger) IRemoteTransport {
	return &sshTransport{
		cfg:         cfg,
		logger:      logger,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		connections: map[string]*sshConnection{},
	}
}

type sshTransport struct {
	cfg    model.TransportConfig
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer

	agentConn   net.Conn
	connections map[string]*sshConnection
}

type sshConnection struct {
	client     *ssh.Client
	sftpClient *sftp.Client
}

func (t *sshTransport) RunRemoteCommand(ctx context.Context, host, command string) error {
	conn, err := t.connect(ctx, host)
	if err != nil {
		return xerrors.Errorf("執行遠端指令 %q 失敗: %w", command, err)
	}

	session, err := conn.client.NewSession()
	if err != nil {
		return xerrors.Errorf("建立 SSH session 失敗: %w", err)
	}
	defer session.Close()

	session.Stdout = t.stdout
	session.Stderr = t.stderr

	t.logger.Debug("執行遠端指令", zap.String("host", host), zap.String("cmd", command))
	if err := session.Run(command); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: command, Code: exitErr.ExitStatus()}
		}
		return xerrors.Errorf("執行遠端指令 %q 失敗: %w", command, err)
	}

	return nil
}

func (t *sshTransport) CopyFiles(ctx context.Context, paths []string, host, remoteDir string) error {
	if len(paths) == 0 {
		return xerrors.New("沒有要複製的檔案")
	}

	conn, err := t.connect(ctx, host)
	if err != nil {
		return xerrors.Errorf("複製檔案到 %s:%s 失敗: %w", host, remoteDir, err)
	}

	if conn.sftpClient == nil {
		sftpClient, err := sftp.NewClient(conn.client)
		if err != nil {
			return xerrors.Errorf("建立 SFTP client 失敗: %w", err)
		}
		conn.sftpClient = sftpClient
	}

	for _, localPath := range paths {
		remotePath := sftpPath(remoteDir, filepath.Base(localPath))
		if err := t.copyFile(conn.sftpClient, localPath, remotePath); err != nil {
			return xerrors.Errorf("複製檔案到 %s:%s 失敗: %w", host, remoteDir, err)
		}
	}

	return nil
}

func (t *sshTransport) copyFile(client *sftp.Client, localPath, remotePath string) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return xerrors.Errorf("開啟本地檔案 %s 失敗: %w", localPath, err)
	}
	defer localFile.Close()

	// Create 會清空已存在的檔案
	remoteFile, err := client.Create(remotePath)
	if err != nil {
		return xerrors.Errorf("建立遠端檔案 %s 失敗: %w", remotePath, err)
	}

	written, err := io.Copy(remoteFile, localFile)
	if err != nil {
		remoteFile.Close()
		return xerrors.Errorf("寫入遠端檔案 %s 失敗: %w", remotePath, err)
	}
	if err := remoteFile.Close(); err != nil {
		return xerrors.Errorf("關閉遠端檔案 %s 失敗: %w", remotePath, err)
	}

	t.logger.Debug("已上傳檔案", zap.String("local", localPath), zap.String("remote", remotePath), zap.Int64("bytes", written))
	return nil
}

// sftpPath SFTP 不會展開 ~，相對路徑本來就以家目錄為起點
func sftpPath(remoteDir, name string) string {
	switch {
	case remoteDir == "~":
		remoteDir = ""
	case strings.HasPrefix(remoteDir, "~/"):
		remoteDir = strings.TrimPrefix(remoteDir, "~/")
	}
	return path.Join(remoteDir, name)
}

func (t *sshTransport) Close() error {
	var errs []error
	for host, conn := range t.connections {
		if conn.sftpClient != nil {
			if err := conn.sftpClient.Close(); err != nil {
				errs = append(errs, xerrors.Errorf("關閉 %s 的 SFTP client 失敗: %w", host, err))
			}
		}
		if err := conn.client.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, xerrors.Errorf("關閉 %s 的 SSH 連線失敗: %w", host, err))
		}
		delete(t.connections, host)
	}
	if t.agentConn != nil {
		t.agentConn.Close()
		t.agentConn = nil
	}
	return errors.Join(errs...)
}

// connect 取得 host 的連線，同一個 host 只會連一次
func (t *sshTransport) connect(ctx context.Context, host string) (*sshConnection, error) {
	if conn, ok := t.connections[host]; ok {
		return conn, nil
	}

	clientConfig, err := t.clientConfig()
	if err != nil {
		return nil, err
	}

	port := t.cfg.Port
	if port == 0 {
		port = defaultSSHPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	t.logger.Debug("建立 SSH 連線", zap.String("addr", addr), zap.String("user", clientConfig.User))

	dialer := net.Dialer{Timeout: t.cfg.DialTimeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, xerrors.Errorf("連線到 %s 失敗: %w", addr, err)
	}

	c, chans, reqs, err := ssh.NewClientConn(netConn, addr, clientConfig)
	if err != nil {
		netConn.Close()
		return nil, xerrors.Errorf("SSH 交握失敗: %w", err)
	}

	conn := &sshConnection{client: ssh.NewClient(c, chans, reqs)}
	t.connections[host] = conn
	return conn, nil
}

func (t *sshTransport) clientConfig() (*ssh.ClientConfig, error) {
	username := t.cfg.User
	if username == "" {
		current, err := user.Current()
		if err != nil {
			return nil, xerrors.Errorf("取得目前使用者失敗: %w", err)
		}
		username = current.Username
	}

	var auths []ssh.AuthMethod

	if t.cfg.KeyFile != "" {
		signer, err := loadSigner(t.cfg.KeyFile, t.cfg.KeyFilePassword)
		if err != nil {
			return nil, xerrors.Errorf("讀取 Private Key 失敗: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" && t.agentConn == nil {
		if agentConn, err := net.Dial("unix", sock); err == nil {
			t.agentConn = agentConn
		} else {
			t.logger.Debug("無法連線到 SSH agent", zap.Error(err))
		}
	}
	if t.agentConn != nil {
		auths = append(auths, ssh.PublicKeysCallback(agent.NewClient(t.agentConn).Signers))
	}

	hostKeyCallback, err := t.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            username,
		Auth:            auths,
		HostKeyCallback: hostKeyCallback,
		Timeout:         t.cfg.DialTimeout,
	}, nil
}

func (t *sshTransport) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if t.cfg.InsecureHostKey {
		t.logger.Warn("已停用 host key 驗證")
		return ssh.InsecureIgnoreHostKey(), nil
	}

	if t.cfg.KnownHostsFile == "" {
		return nil, xerrors.New("未指定 known_hosts 檔案")
	}
	callback, err := knownhosts.New(t.cfg.KnownHostsFile)
	if err != nil {
		return nil, xerrors.Errorf("讀取 known_hosts 失敗: %w", err)
	}
	return callback, nil
}

func loadSigner(keyPath, password string) (ssh.Signer, error) {
	raw, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	if password != "" {
		return ssh.ParsePrivateKeyWithPassphrase(raw, []byte(password))
	}

	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, xerrors.New("Private Key 有設定密碼，請使用 --keyfile-password")
		}
		return nil, err
	}
	return signer, nil
}
