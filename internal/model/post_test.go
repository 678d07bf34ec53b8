package model

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name                     string
		page, limit, total       int
		wantTotalPages           int
		wantHasNext, wantHasPrev bool
	}{
		{name: "先頭ページ", page: 1, limit: 10, total: 25, wantTotalPages: 3, wantHasNext: true, wantHasPrev: false},
		{name: "中間ページ", page: 2, limit: 10, total: 25, wantTotalPages: 3, wantHasNext: true, wantHasPrev: true},
		{name: "最終ページ", page: 3, limit: 10, total: 25, wantTotalPages: 3, wantHasNext: false, wantHasPrev: true},
		{name: "範囲外ページ", page: 5, limit: 10, total: 25, wantTotalPages: 3, wantHasNext: false, wantHasPrev: true},
		{name: "割り切れる件数", page: 1, limit: 5, total: 10, wantTotalPages: 2, wantHasNext: true, wantHasPrev: false},
		{name: "投稿なし", page: 1, limit: 10, total: 0, wantTotalPages: 0, wantHasNext: false, wantHasPrev: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit, tt.total)
			if p.CurrentPage != tt.page {
				t.Errorf("CurrentPage = %d, want %d", p.CurrentPage, tt.page)
			}
			if p.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantTotalPages)
			}
			if p.TotalPosts != tt.total {
				t.Errorf("TotalPosts = %d, want %d", p.TotalPosts, tt.total)
			}
			if p.HasNext != tt.wantHasNext {
				t.Errorf("HasNext = %v, want %v", p.HasNext, tt.wantHasNext)
			}
			if p.HasPrev != tt.wantHasPrev {
				t.Errorf("HasPrev = %v, want %v", p.HasPrev, tt.wantHasPrev)
			}
		})
	}
}

func TestProfileUpdate_IsEmpty(t *testing.T) {
	name := "Jane"
	if !(ProfileUpdate{}).IsEmpty() {
		t.Error("empty update should report IsEmpty")
	}
	if (ProfileUpdate{Name: &name}).IsEmpty() {
		t.Error("update with name should not report IsEmpty")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewPostNotFoundError()
	if got, want := err.Error(), "[POST_NOT_FOUND] Post not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
