// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/portfolio/internal/auth"
)

var _ = Describe("Auth repositories", func() {
	BeforeEach(func() {
		env.truncate()
	})

	Describe("UserRepository", func() {
		It("round-trips a user and finds it regardless of case", func() {
			user := newTestUser("alice")
			Expect(env.Users.Create(env.ctx, user)).To(Succeed())

			got, err := env.Users.GetByUsername(env.ctx, "ALICE")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(user.ID))
			Expect(got.PasswordHash).To(Equal(user.PasswordHash))
			Expect(got.CreatedAt).To(BeTemporally("~", user.CreatedAt, time.Millisecond))
		})

		It("rejects a username that differs only in case", func() {
			Expect(env.Users.Create(env.ctx, newTestUser("alice"))).To(Succeed())

			err := env.Users.Create(env.ctx, newTestUser("Alice"))
			Expect(err).To(MatchError(auth.ErrDuplicateUsername))
		})

		It("promotes a user to admin", func() {
			user := newTestUser("alice")
			Expect(env.Users.Create(env.ctx, user)).To(Succeed())
			Expect(env.Users.SetAdmin(env.ctx, user.ID, true)).To(Succeed())

			got, err := env.Users.GetByID(env.ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.IsAdmin).To(BeTrue())
		})
	})

	Describe("SessionRepository", func() {
		It("replaces a session atomically and binds it", func() {
			user := newTestUser("alice")
			Expect(env.Users.Create(env.ctx, user)).To(Succeed())

			old, err := auth.NewSession("old-hash", time.Now().Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Sessions.Create(env.ctx, old)).To(Succeed())

			next, err := auth.NewSession("next-hash", time.Now().Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Sessions.Replace(env.ctx, &old.ID, next)).To(Succeed())
			Expect(env.Sessions.BindUser(env.ctx, next.ID, user.ID)).To(Succeed())

			_, err = env.Sessions.GetByTokenHash(env.ctx, "old-hash")
			Expect(err).To(MatchError(auth.ErrNotFound))

			got, err := env.Sessions.GetByTokenHash(env.ctx, "next-hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.UserID).NotTo(BeNil())
			Expect(*got.UserID).To(Equal(user.ID))
		})

		It("purges only expired sessions", func() {
			expired, err := auth.NewSession("expired", time.Now().Add(-time.Minute))
			Expect(err).NotTo(HaveOccurred())
			live, err := auth.NewSession("live", time.Now().Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Sessions.Create(env.ctx, expired)).To(Succeed())
			Expect(env.Sessions.Create(env.ctx, live)).To(Succeed())

			n, err := env.Sessions.DeleteExpired(env.ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))
		})
	})

	Describe("AllocationRepository", func() {
		It("upserts the allocation for a user", func() {
			user := newTestUser("alice")
			Expect(env.Users.Create(env.ctx, user)).To(Succeed())

			Expect(env.Allocations.Set(env.ctx, &auth.Allocation{UserID: user.ID, Stocks: 10, Funds: 20, Bonds: 70})).To(Succeed())
			Expect(env.Allocations.Set(env.ctx, &auth.Allocation{UserID: user.ID, Stocks: 30, Funds: 30, Bonds: 40})).To(Succeed())

			got, err := env.Allocations.Get(env.ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Stocks).To(Equal(30))
			Expect(got.Bonds).To(Equal(40))
		})

		It("reports a missing allocation as not found", func() {
			_, err := env.Allocations.Get(env.ctx, ulid.Make())
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})
})

var _ = Describe("Service on PostgreSQL", func() {
	BeforeEach(func() {
		env.truncate()
	})

	It("signs up, logs out, and logs back in", func() {
		sessions := auth.NewSessionManager(env.Sessions, time.Hour, nil)
		svc, err := auth.NewService(auth.Deps{
			Users:        env.Users,
			Sessions:     sessions,
			Hasher:       auth.NewArgon2idHasher(),
			Bootstrapper: auth.NewBootstrapper(env.Allocations, nil),
			Allocations:  env.Allocations,
		})
		Expect(err).NotTo(HaveOccurred())

		signup, err := svc.Signup(env.ctx, nil, auth.SignupForm{
			Username:  "alice",
			FirstName: "Alice",
			LastName:  "Liddell",
			Email:     "alice@example.com",
			Password:  "wonderland",
			Verify:    "wonderland",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(signup.Dashboard.Allocation).NotTo(BeNil())
		Expect(signup.Dashboard.Allocation.Stocks + signup.Dashboard.Allocation.Funds +
			signup.Dashboard.Allocation.Bonds).To(Equal(auth.AllocationTotal))

		Expect(svc.Logout(env.ctx, signup.Session)).To(Succeed())

		login, err := svc.Login(env.ctx, nil, "ALICE", "wonderland")
		Expect(err).NotTo(HaveOccurred())
		Expect(login.Destination).To(Equal(auth.PathDashboard))

		_, err = svc.Login(env.ctx, nil, "alice", "looking-glass")
		Expect(auth.Classify(err)).To(Equal(auth.KindRejected))
	})
})
