package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"userdir.org/internal/auth"
	"userdir.org/internal/directory"
	"userdir.org/internal/obs"
	"userdir.org/internal/perm"
	"userdir.org/internal/session"
	"userdir.org/internal/store/pg"
)

// smoke-auth runs the full login/authorize path end to end: register a user,
// grant read on a resource, authenticate, check the grant, check a denial and
// the IP pin. With -dsn it runs against PostgreSQL, otherwise in memory.
func main() {
	dsn := flag.String("dsn", "", "PostgreSQL DSN (empty runs in memory)")
	flag.Parse()

	obs.Init()
	obs.InitBuildInfo("dev", "none")

	var (
		clients  directory.Store
		users    auth.UserStore
		sessions session.Store
		perms    perm.Store
	)
	if *dsn != "" {
		db, err := pg.Open(*dsn)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = pg.Ping(ctx, db, 5*time.Second)
		cancel()
		if err != nil {
			log.Fatalf("ping postgres: %v", err)
		}
		clients = directory.NewPGStore(db)
		users = auth.NewPGUserStore(db)
		sessions = session.NewPGStore(db)
		perms = perm.NewPGStore(db)
	} else {
		clients = directory.NewInMemory()
		users = auth.NewInMemoryUsers()
		sessions = session.NewInMemory()
		perms = perm.NewInMemory()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := directory.Client{
		Name:           fmt.Sprintf("smoke-%d", time.Now().UnixNano()),
		TimeoutSeconds: 900,
		CookieName:     "udsid",
	}
	if err := clients.Create(ctx, &client); err != nil {
		log.Fatalf("create client: %v", err)
	}
	dir, err := directory.New(clients)
	if err != nil {
		log.Fatalf("directory: %v", err)
	}
	checker, err := perm.NewChecker(perms)
	if err != nil {
		log.Fatalf("checker: %v", err)
	}
	engine, err := auth.NewEngine(dir, directory.Selector{Name: client.Name},
		users, sessions, checker, auth.WithAuditing())
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	username := fmt.Sprintf("smoke-%d", time.Now().UnixNano())
	u, res := engine.Register(ctx, auth.NewUser{
		Username: username,
		Password: "secretpw",
		Email:    username + "@example.com",
	})
	if !res.OK() {
		log.Fatalf("register: %+v", res)
	}
	group := perm.Group{ClientID: client.ID}
	if err := perms.CreateGroup(ctx, &group); err != nil {
		log.Fatalf("create group: %v", err)
	}
	if err := perms.AddMember(ctx, group.ID, u.ID); err != nil {
		log.Fatalf("add member: %v", err)
	}
	if err := checker.Grant(ctx, perm.Grant{
		ClientID: client.ID, UserID: u.ID, Resource: "doc1", Mask: perm.Read,
	}); err != nil {
		log.Fatalf("grant: %v", err)
	}

	if _, res := engine.Authenticate(ctx, username, "wrong", ""); res.Status != auth.StatusAuthRequired {
		log.Fatalf("wrong password not rejected: %+v", res)
	}
	token, res := engine.Authenticate(ctx, username, "secretpw", "10.0.0.1")
	if !res.OK() {
		log.Fatalf("authenticate: %+v", res)
	}
	if len(token) != session.TokenLength {
		log.Fatalf("token length %d, want %d", len(token), session.TokenLength)
	}

	granted, res := engine.Authorize(ctx, auth.Access{
		Token: token, Resource: "doc1", Permission: "read", IP: "10.0.0.1",
	})
	if !res.OK() || !granted {
		log.Fatalf("read should be granted: %+v", res)
	}
	if granted, res := engine.Authorize(ctx, auth.Access{
		Token: token, Resource: "doc1", Permission: "delete", IP: "10.0.0.1",
	}); granted || res.Status != auth.StatusForbidden {
		log.Fatalf("delete should be forbidden: %+v", res)
	}
	if granted, res := engine.Authorize(ctx, auth.Access{
		Token: token, Resource: "doc1", Permission: "read", IP: "10.0.0.2",
	}); granted || res.Status != auth.StatusForbidden {
		log.Fatalf("ip pin should reject: %+v", res)
	}

	profile, res := engine.GetUser(auth.WithUserCache(ctx), token)
	if !res.OK() || profile.Username != username {
		log.Fatalf("get user: %+v %+v", profile, res)
	}

	fmt.Printf("✅ auth smoke test passed: user=%s client=%s\n", u.ID, client.ID)
}
