package chat

import "testing"

func TestToTurnsCoercesRoles(t *testing.T) {
	messages := []Message{
		{ID: "1", Role: RoleModel, Text: "hello"},
		{ID: "2", Role: RoleUser, Text: "hi"},
		{ID: "3", Role: Role("assistant"), Text: "odd"},
	}

	turns := ToTurns(messages)
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleModel || turns[0].Content != "hello" {
		t.Fatalf("unexpected first turn: %+v", turns[0])
	}
	if turns[2].Role != RoleUser {
		t.Fatalf("expected unknown role coerced to user, got %s", turns[2].Role)
	}
}

func TestToTurnsEmpty(t *testing.T) {
	if turns := ToTurns(nil); turns != nil {
		t.Fatalf("expected nil turns, got %v", turns)
	}
}
