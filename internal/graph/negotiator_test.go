package graph

import (
	"errors"
	"testing"

	"github.com/shaiso/Nodeflow/internal/param"
)

func TestNegotiator_OpenInitially(t *testing.T) {
	ng := NewNegotiator("in", "out")

	if got := ng.State(); got != TypeOpen {
		t.Errorf("expected OPEN, got %s", got)
	}
	if poss := ng.Possibilities(); poss != nil {
		t.Errorf("expected no constraints, got %v", poss)
	}
}

func TestNegotiator_AnyOfferDoesNotConstrain(t *testing.T) {
	ng := NewNegotiator("in")

	if err := ng.Offer("peer.out", param.TypeAny); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ng.State(); got != TypeOpen {
		t.Errorf("any-typed connection should leave state OPEN, got %s", got)
	}
}

func TestNegotiator_SingleTypePinsDirectly(t *testing.T) {
	ng := NewNegotiator("in", "out")

	if err := ng.Offer("source.out", param.TypeString); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ng.State(); got != TypeLocked {
		t.Errorf("expected LOCKED after concrete pin, got %s", got)
	}
	locked, ok := ng.LockedType()
	if !ok || locked != param.TypeString {
		t.Errorf("expected locked type str, got %q (ok=%v)", locked, ok)
	}
}

func TestNegotiator_ConstrainedThenLocked(t *testing.T) {
	ng := NewNegotiator("value")

	if err := ng.Offer("a.out", param.TypeString, param.TypeInt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ng.State(); got != TypeConstrained {
		t.Fatalf("expected CONSTRAINED, got %s", got)
	}

	if err := ng.Offer("b.in", param.TypeInt, param.TypeFloat); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Пересечение {str,int} ∩ {int,float} = {int}
	if got := ng.State(); got != TypeLocked {
		t.Errorf("expected LOCKED after narrowing to one type, got %s", got)
	}
}

func TestNegotiator_DisjointOfferRejectedStateIntact(t *testing.T) {
	ng := NewNegotiator("value")

	if err := ng.Offer("a.out", param.TypeString); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ng.Offer("b.out", param.TypeInt)
	if !errors.Is(err, ErrTypeConflict) {
		t.Fatalf("expected ErrTypeConflict, got %v", err)
	}

	// Состояние как до попытки
	if got := ng.State(); got != TypeLocked {
		t.Errorf("state should be unchanged after rejection, got %s", got)
	}
	if locked, _ := ng.LockedType(); locked != param.TypeString {
		t.Errorf("locked type should remain str, got %s", locked)
	}
}

func TestNegotiator_WithdrawRegressesIndependentOfOrder(t *testing.T) {
	build := func() *Negotiator {
		ng := NewNegotiator("value")
		if err := ng.Offer("a", param.TypeString, param.TypeInt); err != nil {
			t.Fatalf("offer a: %v", err)
		}
		if err := ng.Offer("b", param.TypeInt); err != nil {
			t.Fatalf("offer b: %v", err)
		}
		return ng
	}

	// Порядок удаления не влияет на итоговое состояние
	first := build()
	first.Withdraw("a")
	first.Withdraw("b")

	second := build()
	second.Withdraw("b")
	second.Withdraw("a")

	if first.State() != TypeOpen || second.State() != TypeOpen {
		t.Errorf("expected OPEN after removing all offers, got %s and %s", first.State(), second.State())
	}

	// Частичное удаление: регрессия Locked → Constrained
	third := build()
	if got := third.State(); got != TypeLocked {
		t.Fatalf("expected LOCKED, got %s", got)
	}
	third.Withdraw("b")
	if got := third.State(); got != TypeConstrained {
		t.Errorf("expected CONSTRAINED after withdrawing the pin, got %s", got)
	}
}

func TestNegotiator_WithdrawIsIdempotent(t *testing.T) {
	ng := NewNegotiator("value")
	_ = ng.Offer("a", param.TypeString)

	ng.Withdraw("a")
	ng.Withdraw("a") // повторное удаление безопасно

	if got := ng.State(); got != TypeOpen {
		t.Errorf("expected OPEN, got %s", got)
	}
}

func TestNegotiator_ApplyRetagsLinkedParameters(t *testing.T) {
	n := testNode(t, "reroute",
		param.Config{Name: "in", Type: param.TypeAny, Modes: param.ModeInput},
		param.Config{Name: "out", Type: param.TypeAny, Modes: param.ModeOutput})

	ng := NewNegotiator("in", "out")
	if err := ng.Offer("source.out", param.TypeFloat); err != nil {
		t.Fatalf("offer: %v", err)
	}
	ng.Apply(n)

	in, _ := n.Parameter("in")
	out, _ := n.Parameter("out")
	if in.Type() != param.TypeFloat || out.Type() != param.TypeFloat {
		t.Errorf("linked parameters should be retagged to float, got %s/%s", in.Type(), out.Type())
	}

	// Регрессия возвращает any
	ng.Withdraw("source.out")
	ng.Apply(n)
	if in.Type() != param.TypeAny || out.Type() != param.TypeAny {
		t.Errorf("parameters should regress to any, got %s/%s", in.Type(), out.Type())
	}
}
