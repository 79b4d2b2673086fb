package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"

	"DirectoryHasher/internal/cmd"
	"DirectoryHasher/internal/version"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	err := fang.Execute(context.Background(), cmd.NewRootCmd(),
		fang.WithVersion(version.GetVersion()),
		fang.WithCommit(version.GetCommit()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
	os.Exit(cmd.ExitCode(err))
}
