package service

import (
	"context"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/model"
)

// CommentRepo persists comment threads.
type CommentRepo interface {
	Add(ctx context.Context, videoID, authorID, text string) (*model.Comment, error)
	ListForVideo(ctx context.Context, videoID string) ([]model.Comment, error)
	Delete(ctx context.Context, videoID, id string) error
}

type CommentService struct {
	comments CommentRepo
	videos   VideoRepo
}

func NewCommentService(comments CommentRepo, videos VideoRepo) *CommentService {
	return &CommentService{comments: comments, videos: videos}
}

// Add creates a comment after checking the video exists.
func (s *CommentService) Add(ctx context.Context, videoID, authorID, text string) (*model.Comment, error) {
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		return nil, err
	}
	return s.comments.Add(ctx, videoID, authorID, text)
}

func (s *CommentService) ListForVideo(ctx context.Context, videoID string) ([]model.Comment, error) {
	return s.comments.ListForVideo(ctx, videoID)
}

// Delete removes a comment. Only the comment's author may delete it.
func (s *CommentService) Delete(ctx context.Context, userID, videoID, commentID string) error {
	comments, err := s.comments.ListForVideo(ctx, videoID)
	if err != nil {
		return err
	}
	for _, c := range comments {
		if c.ID == commentID {
			if c.AuthorID != userID {
				return ErrNotOwner
			}
			return s.comments.Delete(ctx, videoID, commentID)
		}
	}
	return apperr.NotFound("comment %s", commentID)
}
