// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/emline/internal/handler"
	"github.com/holomush/emline/internal/protocol"
	"github.com/holomush/emline/internal/script"
	"github.com/holomush/emline/internal/session"
)

var _ = Describe("Example bundles", func() {
	var (
		ctx      context.Context
		events   *handler.EventRegistry
		requests *handler.RequestRegistry
		host     *script.Host
		out      *bytes.Buffer
	)

	// run feeds lines through a fresh session and returns everything written
	// back to the host so far.
	run := func(lines ...string) string {
		input := strings.Join(lines, "\n") + "\n"
		sess := session.New(strings.NewReader(input), events, requests)
		Expect(sess.Run(ctx)).To(Succeed())
		return out.String()
	}

	BeforeEach(func() {
		ctx = context.Background()
		out = &bytes.Buffer{}
		outbox := session.NewOutbox(out)
		events = handler.NewEventRegistry()
		requests = handler.NewRequestRegistry(outbox)
		confDir := GinkgoT().TempDir()
		bindConf := filepath.Join(confDir, "em", "bind")
		Expect(os.MkdirAll(bindConf, 0o700)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(bindConf, "config.json"),
			[]byte(`{"bindings": {"h": "uri http://home.example", "o": "tab_new %s"}}`), 0o600)).To(Succeed())
		host = script.NewHost(events, requests, outbox,
			script.WithDataDir(GinkgoT().TempDir()),
			script.WithConfigDir(confDir))

		dir, err := filepath.Abs(filepath.Join("..", "..", "bundles"))
		Expect(err).NotTo(HaveOccurred())
		bundles, err := script.Discover([]string{dir}, nil)
		Expect(err).NotTo(HaveOccurred())
		for _, b := range bundles {
			Expect(host.Load(ctx, b)).To(Succeed())
		}
	})

	AfterEach(func() {
		Expect(host.Close(ctx)).To(Succeed())
	})

	It("loads every example bundle", func() {
		Expect(host.Bundles()).To(Equal([]string{"bind", "history"}))
		Expect(events.Names()).To(ConsistOf("bind.dispatch", "history.record"))
		Expect(requests.Names()).To(ConsistOf("bind.lookup", "history.last"))
	})

	Describe("history", func() {
		It("answers LAST_URI with the most recent commit", func() {
			Expect(run(
				"EVENT [main] LOAD_COMMIT http://a.example",
				"EVENT [main] LOAD_COMMIT http://b.example",
				"REQUEST-1 [main] LAST_URI",
			)).To(Equal("REPLY-1 'http://b.example'\n"))
		})

		It("does not reply before anything was committed", func() {
			Expect(run("REQUEST-1 [main] LAST_URI")).To(BeEmpty())
		})
	})

	Describe("bind", func() {
		It("expands the bound template and sends it", func() {
			Expect(run(
				"EVENT [main] BIND o http://example.com",
				`EVENT [main] BIND t "new tab"`,
				"EVENT [main] BIND y it's",
			)).To(Equal(strings.Join([]string{
				"tab_new http://example.com",
				"tab_new new tab",
				"js navigator.clipboard.writeText('it''s')",
			}, "\n") + "\n"))
		})

		It("adds bindings from its config file", func() {
			Expect(run("EVENT [main] BIND h")).To(Equal("uri http://home.example\n"))
		})

		It("ignores unbound keys", func() {
			Expect(run("EVENT [main] BIND z")).To(BeEmpty())
		})

		It("replies to BOUND with a value Split recovers", func() {
			reply := strings.TrimSuffix(run("REQUEST-abc [main] BOUND y"), "\n")
			Expect(reply).To(HavePrefix("REPLY-abc "))
			Expect(protocol.Split(strings.TrimPrefix(reply, "REPLY-abc "))).
				To(Equal([]string{"js navigator.clipboard.writeText(%r)"}))
		})
	})

	It("stops handling lines after a bundle is unloaded", func() {
		Expect(host.Unload(ctx, "bind")).To(Succeed())
		Expect(run("EVENT [main] BIND t http://example.com")).To(BeEmpty())
	})
})
