package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/trezcool/rollcall/apps/container"
	"github.com/trezcool/rollcall/core"
)

func main() {
	conf := core.NewConfig()
	conf.Database.SeedStudents = false // the schema may not exist yet; see `seed`

	logger := container.NewLogger(conf, "ADMIN")
	defer logger.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	c, err := container.New(ctx, conf, logger, false /* migrate */)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up dependencies: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:         c.DB,
		studentSvc: c.StudentSvc,
		groupSvc:   c.GroupSvc,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	c.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
