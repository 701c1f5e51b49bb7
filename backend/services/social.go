package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"learnpath/backend/gamification"
	"learnpath/backend/models"
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]{3,20})`)

type Social struct {
	env      *Env
	progress *Progress
	notify   *Notifications
}

type PostInput struct {
	Type        string `json:"type" validate:"required,oneof=roadmap achievement project text"`
	Content     string `json:"content" validate:"required,min=1,max=2000"`
	ReferenceID string `json:"reference_id" validate:"max=64"`
}

type PostResult struct {
	Post    *models.Post         `json:"post"`
	Outcome gamification.Outcome `json:"outcome"`
}

// ToggleResult reports the state after a like or save toggle.
type ToggleResult struct {
	Active  bool                 `json:"active"`
	Count   int                  `json:"count"`
	Outcome gamification.Outcome `json:"outcome"`
}

func (s *Social) CreatePost(ctx context.Context, userID uint, in PostInput) (*PostResult, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, errors.Wrap(ErrInvalid, "post content is empty")
	}
	res := &PostResult{}
	err := s.env.transact(ctx, func(tx *gorm.DB) error {
		post := models.Post{UserID: userID, Type: in.Type, Content: content, ReferenceID: in.ReferenceID}
		post.CreatedAt = s.env.now()
		if err := tx.Create(&post).Error; err != nil {
			return errors.Wrap(err, "create post")
		}
		if err := bumpUser(tx, userID, "posts_count", 1); err != nil {
			return err
		}
		if err := s.mention(tx, userID, &post.ID, content); err != nil {
			return err
		}
		res.Post = &post
		var err error
		res.Outcome, err = s.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindPostCreated})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Social) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.env.DB.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, notFound(err, "post")
	}
	return &post, nil
}

// DeletePost removes a post. Only its author may.
func (s *Social) DeletePost(ctx context.Context, userID, postID uint) error {
	return s.env.transact(ctx, func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err, "post")
		}
		if post.UserID != userID {
			return errors.Wrap(ErrForbidden, "only the author can delete a post")
		}
		if err := tx.Delete(&post).Error; err != nil {
			return errors.Wrap(err, "delete post")
		}
		return bumpUser(tx, userID, "posts_count", -1)
	})
}

func (s *Social) UserPosts(ctx context.Context, authorID uint, page Page) ([]models.Post, error) {
	page = page.normalize()
	var out []models.Post
	err := s.env.DB.WithContext(ctx).Preload("Author").
		Where("user_id = ?", authorID).
		Order("created_at desc, id desc").
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	return out, errors.Wrap(err, "list user posts")
}

// Feed lists posts by accounts the user follows (accepted only) and the
// user's own, newest first.
func (s *Social) Feed(ctx context.Context, userID uint, page Page) ([]models.Post, error) {
	page = page.normalize()
	followees := s.env.DB.Model(&models.Follow{}).
		Select("following_id").
		Where("follower_id = ? AND status = ?", userID, models.FollowAccepted)
	var out []models.Post
	err := s.env.DB.WithContext(ctx).Preload("Author").
		Where("user_id IN (?) OR user_id = ?", followees, userID).
		Order("created_at desc, id desc").
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	return out, errors.Wrap(err, "load feed")
}

// Trending ranks posts from the last window by likes plus comments.
func (s *Social) Trending(ctx context.Context, window time.Duration, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var out []models.Post
	err := s.env.DB.WithContext(ctx).Preload("Author").
		Where("created_at >= ?", s.env.now().Add(-window)).
		Order("likes_count + comments_count desc, created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, errors.Wrap(err, "load trending")
}

// Share counts a share of someone's post toward the sharer's influence.
func (s *Social) Share(ctx context.Context, userID, postID uint) (*PostResult, error) {
	res := &PostResult{}
	err := s.env.transact(ctx, func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err, "post")
		}
		if err := bumpPost(tx, &post, "shares_count", 1); err != nil {
			return err
		}
		res.Post = &post
		var err error
		res.Outcome, err = s.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindPostShared})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ToggleLike likes or unlikes a post. The first like of a post by a user
// counts as activity; re-liking after an unlike only restores the row.
func (s *Social) ToggleLike(ctx context.Context, userID, postID uint) (*ToggleResult, error) {
	res := &ToggleResult{}
	err := s.env.transact(ctx, func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err, "post")
		}
		var like models.PostLike
		err := tx.Unscoped().Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error
		firstTime := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !firstTime {
			return errors.Wrap(err, "load like")
		}

		switch {
		case firstTime:
			like = models.PostLike{UserID: userID, PostID: postID}
			if err := tx.Create(&like).Error; err != nil {
				return errors.Wrap(err, "create like")
			}
		case like.DeletedAt.Valid:
			if err := tx.Unscoped().Model(&like).Update("deleted_at", nil).Error; err != nil {
				return errors.Wrap(err, "restore like")
			}
		default:
			if err := tx.Delete(&like).Error; err != nil {
				return errors.Wrap(err, "remove like")
			}
			res.Count = post.LikesCount - 1
			return bumpPost(tx, &post, "likes_count", -1)
		}

		res.Active = true
		if err := bumpPost(tx, &post, "likes_count", 1); err != nil {
			return err
		}
		res.Count = post.LikesCount
		if _, err := s.progress.apply(tx, post.UserID, gamification.Event{
			Kind:  gamification.KindPostLikes,
			Likes: post.LikesCount,
		}); err != nil {
			return err
		}
		if !firstTime {
			return nil
		}
		if err := s.notify.create(tx, models.Notification{
			UserID: post.UserID, ActorID: userID, Type: models.NotificationLike, PostID: &post.ID,
		}); err != nil {
			return err
		}
		res.Outcome, err = s.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindLikeGiven})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ToggleSave bookmarks or un-bookmarks a post, with the same first-time
// rule as likes.
func (s *Social) ToggleSave(ctx context.Context, userID, postID uint) (*ToggleResult, error) {
	res := &ToggleResult{}
	err := s.env.transact(ctx, func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err, "post")
		}
		var save models.PostSave
		err := tx.Unscoped().Where("user_id = ? AND post_id = ?", userID, postID).First(&save).Error
		firstTime := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !firstTime {
			return errors.Wrap(err, "load save")
		}

		switch {
		case firstTime:
			save = models.PostSave{UserID: userID, PostID: postID}
			if err := tx.Create(&save).Error; err != nil {
				return errors.Wrap(err, "create save")
			}
		case save.DeletedAt.Valid:
			if err := tx.Unscoped().Model(&save).Update("deleted_at", nil).Error; err != nil {
				return errors.Wrap(err, "restore save")
			}
		default:
			if err := tx.Delete(&save).Error; err != nil {
				return errors.Wrap(err, "remove save")
			}
			res.Count = post.SavesCount - 1
			return bumpPost(tx, &post, "saves_count", -1)
		}

		res.Active = true
		if err := bumpPost(tx, &post, "saves_count", 1); err != nil {
			return err
		}
		res.Count = post.SavesCount
		if !firstTime {
			return nil
		}
		res.Outcome, err = s.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindPostSaved})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Social) SavedPosts(ctx context.Context, userID uint, page Page) ([]models.Post, error) {
	page = page.normalize()
	saved := s.env.DB.Model(&models.PostSave{}).Select("post_id").Where("user_id = ?", userID)
	var out []models.Post
	err := s.env.DB.WithContext(ctx).Preload("Author").
		Where("id IN (?)", saved).
		Order("created_at desc, id desc").
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	return out, errors.Wrap(err, "list saved posts")
}

type CommentInput struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

type CommentResult struct {
	Comment *models.Comment      `json:"comment"`
	Outcome gamification.Outcome `json:"outcome"`
}

func (s *Social) AddComment(ctx context.Context, userID, postID uint, in CommentInput) (*CommentResult, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, errors.Wrap(ErrInvalid, "comment is empty")
	}
	res := &CommentResult{}
	err := s.env.transact(ctx, func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			return notFound(err, "post")
		}
		comment := models.Comment{PostID: postID, UserID: userID, Content: content}
		if err := tx.Create(&comment).Error; err != nil {
			return errors.Wrap(err, "create comment")
		}
		if err := bumpPost(tx, &post, "comments_count", 1); err != nil {
			return err
		}
		if err := s.notify.create(tx, models.Notification{
			UserID: post.UserID, ActorID: userID, Type: models.NotificationComment, PostID: &post.ID, Text: truncate(content, 140),
		}); err != nil {
			return err
		}
		if err := s.mention(tx, userID, &post.ID, content); err != nil {
			return err
		}
		res.Comment = &comment
		var err error
		res.Outcome, err = s.progress.apply(tx, userID, gamification.Event{Kind: gamification.KindCommentAdded})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Social) Comments(ctx context.Context, postID uint, page Page) ([]models.Comment, error) {
	page = page.normalize()
	var out []models.Comment
	err := s.env.DB.WithContext(ctx).Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at asc, id asc").
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	return out, errors.Wrap(err, "list comments")
}

func (s *Social) DeleteComment(ctx context.Context, userID, commentID uint) error {
	return s.env.transact(ctx, func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return notFound(err, "comment")
		}
		if comment.UserID != userID {
			return errors.Wrap(ErrForbidden, "only the author can delete a comment")
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return errors.Wrap(err, "delete comment")
		}
		var post models.Post
		if err := tx.First(&post, comment.PostID).Error; err != nil {
			return notFound(err, "post")
		}
		return bumpPost(tx, &post, "comments_count", -1)
	})
}

// mention notifies every existing user tagged as @username in text.
func (s *Social) mention(tx *gorm.DB, actorID uint, postID *uint, text string) error {
	seen := map[string]bool{}
	var names []string
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		name := strings.ToLower(m[1])
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	var users []models.User
	if err := tx.Where("username_lower IN ?", names).Find(&users).Error; err != nil {
		return errors.Wrap(err, "resolve mentions")
	}
	for _, u := range users {
		if err := s.notify.create(tx, models.Notification{
			UserID: u.ID, ActorID: actorID, Type: models.NotificationMention, PostID: postID, Text: truncate(text, 140),
		}); err != nil {
			return err
		}
	}
	return nil
}

func bumpPost(tx *gorm.DB, post *models.Post, column string, delta int) error {
	err := tx.Model(post).UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
	if err != nil {
		return errors.Wrapf(err, "update post %s", column)
	}
	return errors.Wrap(tx.First(post, post.ID).Error, "reload post")
}

func bumpUser(tx *gorm.DB, userID uint, column string, delta int) error {
	err := tx.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
	return errors.Wrapf(err, "update user %s", column)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
