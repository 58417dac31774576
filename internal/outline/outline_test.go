package outline

import (
	"context"
	"testing"
)

func TestBuildOutlineFallbackTemplate(t *testing.T) {
	b := NewBuilder(nil)
	o, err := b.BuildOutline(context.Background(), "quantum computing", Comprehensive, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Leaves()) < 3 {
		t.Errorf("expected at least 3 leaves, got %d", len(o.Leaves()))
	}
	for _, n := range o.Leaves() {
		if len(n.KeyPoints) == 0 {
			t.Errorf("leaf %q has no key points", n.Title)
		}
	}
}

func TestBuildOutlineReportTypesDiffer(t *testing.T) {
	b := NewBuilder(nil)
	comprehensive, _ := b.BuildOutline(context.Background(), "t", Comprehensive, nil)
	news, _ := b.BuildOutline(context.Background(), "t", NewsReport, nil)
	if comprehensive.Roots[0].Title == news.Roots[0].Title {
		t.Error("expected different templates per report type")
	}
}

func TestValidateRejectsDuplicateTitles(t *testing.T) {
	o := &Outline{Topic: "t", Type: Comprehensive, Roots: []*Node{
		{ID: 0, Title: "Same", KeyPoints: []string{"a"}},
		{ID: 1, Title: "Same", KeyPoints: []string{"b"}},
	}}
	if err := validate(o); err == nil {
		t.Error("expected error for duplicate sibling titles")
	}
}

func TestValidateRejectsEmptyTitle(t *testing.T) {
	o := &Outline{Topic: "t", Type: Comprehensive, Roots: []*Node{
		{ID: 0, Title: "  ", KeyPoints: []string{"a"}},
	}}
	if err := validate(o); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestValidateRejectsLeafWithoutKeyPoints(t *testing.T) {
	o := &Outline{Topic: "t", Type: Comprehensive, Roots: []*Node{
		{ID: 0, Title: "A"},
	}}
	if err := validate(o); err == nil {
		t.Error("expected error for leaf without key points")
	}
}

func TestValidateRejectsExcessiveDepth(t *testing.T) {
	leaf := &Node{ID: 4, Title: "leaf", KeyPoints: []string{"x"}}
	l4 := &Node{ID: 3, Title: "l4", Children: []*Node{leaf}}
	l3 := &Node{ID: 2, Title: "l3", Children: []*Node{l4}}
	l2 := &Node{ID: 1, Title: "l2", Children: []*Node{l3}}
	l1 := &Node{ID: 0, Title: "l1", Children: []*Node{l2}}
	o := &Outline{Topic: "t", Type: Comprehensive, Roots: []*Node{l1}}
	if err := validate(o); err == nil {
		t.Error("expected error for depth exceeding MaxDepth")
	}
}

func TestLeavesTraversalOrder(t *testing.T) {
	o := &Outline{Roots: []*Node{
		{ID: 0, Title: "A", Children: []*Node{
			{ID: 1, Title: "A.1", KeyPoints: []string{"x"}},
			{ID: 2, Title: "A.2", KeyPoints: []string{"x"}},
		}},
		{ID: 3, Title: "B", KeyPoints: []string{"x"}},
	}}
	leaves := o.Leaves()
	if len(leaves) != 3 || leaves[0].Title != "A.1" || leaves[2].Title != "B" {
		t.Errorf("unexpected leaf order: %v", leaves)
	}
}
