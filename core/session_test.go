package core

import "testing"

func TestSession_ApplyStateDeltaAndClone(t *testing.T) {
	s := NewSession("s1", "u1")

	delta := map[string]any{"a": 1, "b": "x"}

	s.ApplyStateDelta(delta)
	if v, ok := s.GetState("a"); !ok || v.(int) != 1 {
		t.Fatalf("State not applied: %+v", s.State)
	}

	clone := s.Clone()
	if clone == s {
		t.Error("Clone should be a different pointer")
	}

	clone.SetState("c", 2)
	if _, exists := s.GetState("c"); exists {
		t.Error("Original should not have clone's new key")
	}
}

func TestSession_AddTurnIncrementsVersion(t *testing.T) {
	s := NewSession("s2", "u1")
	if s.CurrentVersion() != 0 {
		t.Fatalf("new session should start at version 0, got %d", s.CurrentVersion())
	}

	v1 := s.AddTurn(NewUserTurn("hi"))
	v2 := s.AddTurn(NewAssistantTurn("", "hello", TurnComplete))
	if v1 != 1 || v2 != 2 {
		t.Fatalf("versions should increase by one per turn, got %d then %d", v1, v2)
	}
}

func TestSession_TurnsCopiedOnRead(t *testing.T) {
	s := NewSession("s3", "u1")
	s.AddTurn(NewUserTurn("hi"))

	all := s.GetTurns()
	orig := all[0].Content
	all[0].Content = "changed"
	if s.GetTurns()[0].Content != orig {
		t.Error("turns slice should be copied on read")
	}
}

func TestSession_ConversationHistoryFiltersRoles(t *testing.T) {
	s := NewSession("s4", "u1")
	s.AddTurn(NewUserTurn("question"))
	s.AddTurn(Turn{ID: NewID(), Role: TurnRoleAgent, AgentName: "electric_engineer", Content: "internal"})
	s.AddTurn(NewAssistantTurn("", "answer", TurnComplete))

	history := s.ConversationHistory()
	if len(history) != 2 {
		t.Fatalf("expected 2 conversational turns, got %d", len(history))
	}
	for _, turn := range history {
		if turn.Role == TurnRoleAgent {
			t.Error("agent turns should be excluded from history")
		}
	}
}

func TestCallBudget_Exhaustion(t *testing.T) {
	b := NewCallBudget(2)
	if err := b.Increment(); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}
	if err := b.Increment(); err != nil {
		t.Fatalf("second call should pass: %v", err)
	}
	if err := b.Increment(); err == nil {
		t.Error("third call should exceed the budget")
	}
	if b.Count() != 3 {
		t.Errorf("expected count 3, got %d", b.Count())
	}
}

func TestCallBudget_UnlimitedWhenZero(t *testing.T) {
	b := NewCallBudget(0)
	for i := 0; i < 100; i++ {
		if err := b.Increment(); err != nil {
			t.Fatalf("unlimited budget should never error: %v", err)
		}
	}
	if b.Remaining() != -1 {
		t.Errorf("unlimited budget should report -1 remaining, got %d", b.Remaining())
	}
}
