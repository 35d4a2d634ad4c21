package main

import (
	"sync/atomic"
	"time"

	"github.com/yndnr/shardkv/internal/infra/buildinfo"
	"github.com/yndnr/shardkv/internal/server/httpserver/handler"
	"github.com/yndnr/shardkv/internal/server/redisserver"
	"github.com/yndnr/shardkv/internal/storage"
)

// serverStatus backs the admin /ready and /info routes.
type serverStatus struct {
	engine  *storage.Engine
	srv     *redisserver.Server
	runID   string
	started time.Time
	ready   atomic.Bool
}

func (s *serverStatus) Ready() bool {
	return s.ready.Load()
}

func (s *serverStatus) Status() handler.Status {
	info := buildinfo.Get()
	st := s.engine.Stats()

	var addr string
	if a := s.srv.Addr(); a != nil {
		addr = a.String()
	}

	return handler.Status{
		Version:         info.Version,
		Commit:          info.Commit,
		GoVersion:       info.GoVersion,
		RunID:           s.runID,
		Uptime:          time.Since(s.started).Truncate(time.Second).String(),
		Address:         addr,
		Connections:     s.srv.ConnectionCount(),
		Keys:            st.Keys,
		Shards:          s.engine.ShardLens(),
		Durable:         st.Durable,
		AOFSizeBytes:    st.AOFSize,
		AOFAppended:     st.AOFAppended,
		ReplayedRecords: st.ReplayApplied,
	}
}
