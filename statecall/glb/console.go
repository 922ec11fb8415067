package glb

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/viper"
)

func Infof(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

func Verbosef(format string, args ...any) {
	if viper.GetBool("verbose") {
		fmt.Printf(format+"\n", args...)
	}
}

func Fatalf(format string, args ...any) {
	fmt.Printf("Error: "+format+"\n", args...)
	os.Exit(1)
}

func AssertNoError(err error) {
	if err != nil {
		Fatalf("%v", err)
	}
}

func Assertf(cond bool, format string, args ...any) {
	if !cond {
		Fatalf(format, args...)
	}
}

var (
	ctx     context.Context
	stopCtx context.CancelFunc
)

// Context is cancelled on interrupt
func Context() context.Context {
	if ctx == nil {
		ctx, stopCtx = signal.NotifyContext(context.Background(), os.Interrupt)
	}
	return ctx
}
