// Package node is the full node: it keeps the state locally and serves execution proofs to light clients
package node

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/lunfardo314/statecall/api/server"
	"github.com/lunfardo314/statecall/chain"
	"github.com/lunfardo314/statecall/client"
	"github.com/lunfardo314/statecall/genesis"
	"github.com/lunfardo314/statecall/global"
	"github.com/lunfardo314/statecall/kvstore"
	"github.com/lunfardo314/statecall/metrics"
	"github.com/lunfardo314/statecall/runtime"
	"github.com/lunfardo314/statecall/util"
	"github.com/spf13/viper"
)

type Node struct {
	*global.Global
	db            kvstore.DB
	backend       *chain.LocalBackend
	executor      *client.LocalCallExecutor
	apiServer     *server.Server
	metricsServer *http.Server
	started       time.Time
	stopOnce      sync.Once
}

func New() *Node {
	initConfig()
	return &Node{
		Global:  global.NewFromConfig(),
		started: time.Now(),
	}
}

// Run starts the node. Exits the process on startup error
func (n *Node) Run() {
	n.Log().Info(global.BannerString())

	err := util.CatchPanicOrError(func() error {
		if err := n.initDB(); err != nil {
			return err
		}
		if err := n.initGenesisIfNeeded(); err != nil {
			return err
		}
		n.executor = client.NewLocalCallExecutor(n, n.backend, runtime.NewWithBuiltins())
		n.startAPIServer()
		n.startMetricsIfEnabled()
		return nil
	})
	if err != nil {
		n.Log().Errorf("error on startup: %v", err)
		os.Exit(1)
	}
	n.Log().Infof("statecall node has been started successfully")
}

func (n *Node) initDB() error {
	dbType := viper.GetString(global.ConfigKeyDBType)
	dir := viper.GetString(global.ConfigKeyDBDir)
	var err error
	if n.db, err = kvstore.Open(dbType, dir); err != nil {
		return err
	}
	n.MarkStartedComponent()
	n.backend = chain.NewLocalBackend(n.db)
	n.Log().Infof("opened %s database '%s'", dbType, dir)
	return nil
}

func (n *Node) initGenesisIfNeeded() error {
	best, err := n.backend.BestHeader()
	if err != nil {
		return err
	}
	if best != nil {
		n.Log().Infof("best block: #%d %s", best.Number, best.Hash().String())
		return nil
	}
	fname := viper.GetString(global.ConfigKeyGenesisFile)
	d, err := genesis.ReadFile(fname)
	if err != nil {
		return fmt.Errorf("database is empty and genesis file can't be read: %w", err)
	}
	h, err := genesis.InitGenesis(n.backend, d)
	if err != nil {
		return err
	}
	n.Log().Infof("genesis block %s created from '%s'", h.Hash().String(), fname)
	return nil
}

func (n *Node) startAPIServer() {
	port := viper.GetInt(global.ConfigKeyAPIPort)
	n.apiServer = server.New(fmt.Sprintf(":%d", port), n)
	n.Log().Infof("starting API server on port %d", port)
	go func() {
		err := n.apiServer.ListenAndServe()
		util.Assertf(err == nil || err == http.ErrServerClosed, "API server: %v", err)
	}()
}

func (n *Node) startMetricsIfEnabled() {
	if !viper.GetBool(global.ConfigKeyMetricsEnable) {
		n.Log().Infof("Prometheus metrics disabled")
		return
	}
	n.metricsServer = metrics.Start(n, viper.GetInt(global.ConfigKeyMetricsPort))
}

func (n *Node) Stop() {
	n.stopOnce.Do(func() {
		n.Log().Info("stopping the node..")
		global.SetShutDown()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if n.apiServer != nil {
			if err := n.apiServer.Shutdown(ctx); err != nil {
				n.Log().Warnf("error while stopping API server: %v", err)
			}
		}
		if n.metricsServer != nil {
			_ = n.metricsServer.Shutdown(ctx)
		}
		if n.db != nil {
			if err := n.db.Close(); err == nil {
				n.Log().Infof("state database has been closed")
			} else {
				n.Log().Warnf("error while closing state database: %v", err)
			}
			n.MarkStoppedComponent()
		}
		n.Global.Stop()
	})
}

func (n *Node) WaitStop() {
	n.Wait()
	n.Log().Infof("node stopped. Uptime: %v", time.Since(n.started).Round(time.Second))
}

func (n *Node) Backend() *chain.LocalBackend {
	return n.backend
}

func (n *Node) Executor() *client.LocalCallExecutor {
	return n.executor
}

// ProveExecution, Header and BestHeader are served by the API server

func (n *Node) ProveExecution(ctx context.Context, hash chain.Hash, method string, input []byte) ([]byte, [][]byte, error) {
	return n.executor.ProveExecution(ctx, hash, method, input)
}

func (n *Node) Header(id chain.BlockID) (*chain.Header, error) {
	return n.backend.Header(id)
}

func (n *Node) BestHeader() (*chain.Header, error) {
	return n.backend.BestHeader()
}
