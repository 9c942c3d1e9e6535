package prompts

import (
	"strings"
	"testing"
)

func TestBuildSystemPrompt(t *testing.T) {
	got := BuildSystemPrompt("demo", "/work/demo", []string{"read_file", "write_file"}, false, 25, "Use tabs.")

	for _, want := range []string{
		"Project: demo",
		"Project Root: /work/demo",
		"Available tools: read_file, write_file.",
		"EDITING FILES",
		"at most 25 rounds",
		"USER INSTRUCTIONS\n\nUse tabs.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt is missing %q", want)
		}
	}
	if strings.Count(got, "\n\n====\n\n") != 6 {
		t.Errorf("expected 7 sections, got:\n%s", got)
	}
}

func TestBuildSystemPrompt_ReadOnly(t *testing.T) {
	got := BuildSystemPrompt("demo", "/work/demo", []string{"read_file"}, true, 0, "")
	if strings.Contains(got, "EDITING FILES") {
		t.Error("read-only prompt should not describe editing")
	}
	if !strings.Contains(got, "read-only mode") {
		t.Error("read-only prompt should say so")
	}
	if strings.Contains(got, "rounds of tool calls") || strings.Contains(got, "USER INSTRUCTIONS") {
		t.Error("unset options should be omitted")
	}
}

func TestBuildSystemPrompt_OnlyAdvertisedTools(t *testing.T) {
	got := BuildSystemPrompt("demo", "/work/demo", []string{"read_file", "finish_task"}, true, 0, "")
	for _, absent := range []string{"save_memory", "manage_todos", "ask_user"} {
		if strings.Contains(got, absent) {
			t.Errorf("prompt mentions %s, which is not advertised", absent)
		}
	}
	if !strings.Contains(got, "Call finish_task") {
		t.Error("prompt should explain finish_task")
	}

	got = BuildSystemPrompt("demo", "/work/demo", []string{"read_file"}, true, 0, "")
	if strings.Contains(got, "finish_task") {
		t.Error("prompt mentions finish_task, which is not advertised")
	}
}
