package app

import (
	"net"
	"net/url"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はローカルのHTTPサーフェスを起動する。
	CommandServe Command = "serve"
	// CommandHealthcheck は起動中のサーバーの/healthを確認して終了する。
	// curlを持たないdistrolessイメージのHEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandHealthcheck:
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// healthcheckURL はSERVER_HOSTとSERVER_PORTから確認先のURLを組み立てる。
// 全インターフェースで待ち受けている場合はループバックに接続する。
func healthcheckURL(host, port string) string {
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	if port == "" {
		port = "8080"
	}
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, port), Path: "/health"}
	return u.String()
}
