package command

import (
	"testing"

	"github.com/doeshing/askpage-go/internal/domain"
)

func newTestCatalog(user []domain.Command) *Catalog {
	c := NewCatalog(user)
	n := 0
	c.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	return c
}

func TestValidateTrigger(t *testing.T) {
	valid := []string{"/a", "/translate", "/sum_up", "/T9"}
	invalid := []string{"", "translate", "/", "/9lives", "/with-dash", "/with space", "//x", "/ünï"}

	for _, trigger := range valid {
		if err := ValidateTrigger(trigger); err != nil {
			t.Errorf("ValidateTrigger(%q) = %v, want nil", trigger, err)
		}
	}
	for _, trigger := range invalid {
		if err := ValidateTrigger(trigger); !domain.IsCode(err, domain.ErrCodeInvalidCommand) {
			t.Errorf("ValidateTrigger(%q) = %v, want INVALID_COMMAND", trigger, err)
		}
	}
}

func TestCatalog_AddRejectsBuiltinCollision(t *testing.T) {
	c := newTestCatalog(nil)
	for _, trigger := range []string{"/clear", "/summary", "/screenshot"} {
		if _, err := c.Add(trigger, "anything"); !domain.IsCode(err, domain.ErrCodeCommandConflict) {
			t.Errorf("Add(%q) = %v, want COMMAND_CONFLICT", trigger, err)
		}
	}
	if len(c.Commands()) != 0 {
		t.Fatalf("rejected commands must not be stored")
	}
}

func TestCatalog_AddRejectsDuplicates(t *testing.T) {
	c := newTestCatalog(nil)
	cmd, err := c.Add(" /translate ", " Translate ")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if cmd.Trigger != "/translate" || cmd.Prompt != "Translate" || cmd.ID != "id-1" || cmd.Name != "translate" {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if _, err := c.Add("/translate", "again"); !domain.IsCode(err, domain.ErrCodeCommandConflict) {
		t.Fatalf("duplicate Add = %v, want COMMAND_CONFLICT", err)
	}
	if _, err := c.Add("/empty", "   "); !domain.IsCode(err, domain.ErrCodeInvalidCommand) {
		t.Fatalf("empty prompt = %v, want INVALID_COMMAND", err)
	}
}

func TestCatalog_Update(t *testing.T) {
	stored := []domain.Command{{Trigger: "/a", Prompt: "A"}, {Trigger: "/b", Prompt: "B"}}
	c := newTestCatalog(stored)

	if _, err := c.Update("/a", "/b", "A2"); !domain.IsCode(err, domain.ErrCodeCommandConflict) {
		t.Fatalf("rename onto existing trigger = %v, want COMMAND_CONFLICT", err)
	}
	cmd, err := c.Update("/a", "", "A2")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if cmd.Trigger != "/a" || cmd.Prompt != "A2" || cmd.ID == "" {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if _, err := c.Update(cmd.ID, "/renamed", "A3"); err != nil {
		t.Fatalf("Update by id: %v", err)
	}
	if stored[0].Prompt != "A" {
		t.Fatalf("catalog mutated its input slice")
	}
	if _, err := c.Update("/summary", "", "x"); !domain.IsCode(err, domain.ErrCodeBuiltinNotEditable) {
		t.Fatalf("Update(/summary) = %v, want BUILTIN_NOT_EDITABLE", err)
	}
	if _, err := c.Update("/missing", "", "x"); !domain.IsCode(err, domain.ErrCodeCommandNotFound) {
		t.Fatalf("Update(/missing) = %v, want COMMAND_NOT_FOUND", err)
	}
}

func TestCatalog_Delete(t *testing.T) {
	c := newTestCatalog([]domain.Command{{Trigger: "/a", Prompt: "A"}, {Trigger: "/b", Prompt: "B"}})

	if _, err := c.Delete("/clear"); !domain.IsCode(err, domain.ErrCodeBuiltinNotEditable) {
		t.Fatalf("Delete(/clear) = %v", err)
	}
	removed, err := c.Delete("/a")
	if err != nil || removed.Trigger != "/a" {
		t.Fatalf("Delete(/a) = %+v, %v", removed, err)
	}
	got := c.Commands()
	if len(got) != 1 || got[0].Trigger != "/b" {
		t.Fatalf("remaining = %+v", got)
	}
	if _, err := c.Delete("/a"); !domain.IsCode(err, domain.ErrCodeCommandNotFound) {
		t.Fatalf("second Delete(/a) = %v", err)
	}
}

func TestCatalog_UpdateKeepsPromptWhenEmpty(t *testing.T) {
	c := NewCatalog(nil)
	if _, err := c.Add("/a", "keep me"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	cmd, err := c.Update("/a", "/b", "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if cmd.Trigger != "/b" || cmd.Prompt != "keep me" {
		t.Fatalf("updated = %+v", cmd)
	}
}
