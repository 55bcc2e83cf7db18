package mqttcore

import "testing"

func handlerStub(Message, any) {}
func handlerStubTwo(Message, any) {}

func TestSubscriptionTableInstallDuplicateIgnored(t *testing.T) {
	tbl := newSubscriptionTable(4)
	b := TopicBinding{Filter: "/a/b", Handler: handlerStub, Ctx: nil}

	if res := tbl.install(b); res != installOK {
		t.Fatalf("first install = %v, want installOK", res)
	}
	if res := tbl.install(b); res != installDuplicateIgnored {
		t.Fatalf("second identical install = %v, want installDuplicateIgnored", res)
	}
	if got := len(tbl.matchAndInvoke("/a/b")); got != 1 {
		t.Fatalf("matchAndInvoke returned %d bindings, want 1", got)
	}
}

func TestSubscriptionTableDistinctContextsCoexist(t *testing.T) {
	tbl := newSubscriptionTable(4)
	a := TopicBinding{Filter: "/a/b", Handler: handlerStub, Ctx: "ctx-1"}
	b := TopicBinding{Filter: "/a/b", Handler: handlerStub, Ctx: "ctx-2"}

	if res := tbl.install(a); res != installOK {
		t.Fatalf("install a = %v", res)
	}
	if res := tbl.install(b); res != installOK {
		t.Fatalf("install b = %v, want installOK (different context is a distinct binding)", res)
	}
	if got := len(tbl.matchAndInvoke("/a/b")); got != 2 {
		t.Fatalf("matchAndInvoke returned %d bindings, want 2", got)
	}
}

func TestSubscriptionTableFull(t *testing.T) {
	tbl := newSubscriptionTable(1)
	if res := tbl.install(TopicBinding{Filter: "/a", Handler: handlerStub}); res != installOK {
		t.Fatalf("install = %v", res)
	}
	if res := tbl.install(TopicBinding{Filter: "/b", Handler: handlerStub}); res != installFull {
		t.Fatalf("install into full table = %v, want installFull", res)
	}
}

func TestSubscriptionTableRemoveByFilter(t *testing.T) {
	tbl := newSubscriptionTable(4)
	a := TopicBinding{Filter: "/a/b", Handler: handlerStub, Ctx: "ctx-1"}
	b := TopicBinding{Filter: "/a/b", Handler: handlerStub, Ctx: "ctx-2"}
	tbl.install(a)
	tbl.install(b)

	tbl.removeByFilter("/a/b")

	if got := len(tbl.matchAndInvoke("/a/b")); got != 0 {
		t.Fatalf("matchAndInvoke after removeByFilter returned %d, want 0", got)
	}
}

func TestFuncEqualDistinctFunctions(t *testing.T) {
	var a MessageHandler = handlerStub
	var b MessageHandler = handlerStubTwo
	if funcEqual(a, b) {
		t.Fatal("distinct named functions should not compare equal")
	}
	if !funcEqual(a, a) {
		t.Fatal("a function must compare equal to itself")
	}
	if funcEqual(nil, a) || funcEqual(a, nil) {
		t.Fatal("nil must not compare equal to a non-nil handler")
	}
}
