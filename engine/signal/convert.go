package signal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/paperpulse/paperpulse/engine/domain"
	"github.com/paperpulse/paperpulse/engine/sources"
)

// Converters turn raw platform records into unified signals. Each converter
// derives a deterministic id, builds the raw metrics bag, normalizes
// engagement, and synthesizes fallback content long enough to clear the hard
// content-length filter.

func FromTweet(tweet sources.Tweet, now time.Time) domain.Signal {
	raw := domain.EngagementRaw{
		"likes":     float64(tweet.Likes),
		"retweets":  float64(tweet.Retweets),
		"replies":   float64(tweet.Replies),
		"followers": float64(tweet.Followers),
	}

	title := tweet.Text
	if len(title) > 100 {
		title = title[:100] + "..."
	}

	author := tweet.AuthorName
	if author == "" {
		author = "Unknown"
	}
	var handle string
	if tweet.AuthorUsername != "" {
		handle = "@" + tweet.AuthorUsername
	}

	return domain.Signal{
		ID:            domain.SignalID(domain.SourceTwitter, tweet.ID),
		Type:          domain.SourceTwitter,
		Title:         title,
		Content:       tweet.Text,
		Author:        author,
		AuthorHandle:  handle,
		URL:           fmt.Sprintf("https://twitter.com/%s/status/%s", tweet.AuthorUsername, tweet.ID),
		PublishedDate: tweet.CreatedAt,
		Engagement: domain.Engagement{
			Raw:        raw,
			Normalized: NormalizeEngagement(domain.SourceTwitter, raw),
		},
		RelatedPapers: []string{},
		Tags:          []string{},
		CreatedAt:     now.UTC().Format(time.RFC3339),
	}
}

func FromNewsArticle(article sources.NewsArticle, now time.Time) domain.Signal {
	raw := domain.EngagementRaw{
		"has_image":         boolFlag(article.URLToImage != ""),
		"reputable_source":  boolFlag(IsReputableOutlet(article.SourceName)),
		"description_chars": float64(len(article.Description)),
		"content_chars":     float64(len(article.Content)),
	}

	content := article.Description
	if content == "" {
		content = article.Content
	}

	author := article.Author
	if author == "" {
		author = article.SourceName
	}
	if author == "" {
		author = "Unknown"
	}

	return domain.Signal{
		ID:            domain.SignalID(domain.SourceNews, article.URL),
		Type:          domain.SourceNews,
		Title:         article.Title,
		Content:       content,
		Author:        author,
		URL:           article.URL,
		PublishedDate: article.PublishedAt,
		Engagement: domain.Engagement{
			Raw:        raw,
			Normalized: NormalizeEngagement(domain.SourceNews, raw),
		},
		RelatedPapers: []string{},
		Tags:          []string{},
		CreatedAt:     now.UTC().Format(time.RFC3339),
	}
}

func FromHNStory(story sources.HNStory, now time.Time) domain.Signal {
	raw := domain.EngagementRaw{
		"points":       float64(story.Points),
		"num_comments": float64(story.NumComments),
	}

	// Stories rarely carry body text; synthesize enough context from the
	// discussion stats to clear the minimum content length.
	content := story.StoryText
	if content == "" {
		content = fmt.Sprintf("%s. Hacker News discussion with %d comments and %d points.",
			story.Title, story.NumComments, story.Points)
	}

	author := story.Author
	if author == "" {
		author = "Unknown"
	}

	return domain.Signal{
		ID:            domain.SignalID(domain.SourceHackerNews, story.ID),
		Type:          domain.SourceHackerNews,
		Title:         story.Title,
		Content:       content,
		Author:        author,
		URL:           story.URL,
		PublishedDate: story.CreatedAt.Format(time.RFC3339),
		Engagement: domain.Engagement{
			Raw:        raw,
			Normalized: NormalizeEngagement(domain.SourceHackerNews, raw),
		},
		RelatedPapers: []string{},
		Tags:          []string{},
		CreatedAt:     now.UTC().Format(time.RFC3339),
	}
}

func FromStackQuestion(q sources.StackQuestion, now time.Time) domain.Signal {
	raw := domain.EngagementRaw{
		"score":        float64(q.Score),
		"answer_count": float64(q.AnswerCount),
		"view_count":   float64(q.ViewCount),
	}

	var content string
	if q.Body != "" {
		content = truncate(q.Title+". "+q.Body, 500)
	} else {
		content = fmt.Sprintf("%s. Stack Overflow question with %d answers and score of %d.",
			q.Title, q.AnswerCount, q.Score)
	}

	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}

	return domain.Signal{
		ID:            domain.SignalID(domain.SourceStackOverflow, strconv.FormatInt(q.ID, 10)),
		Type:          domain.SourceStackOverflow,
		Title:         q.Title,
		Content:       content,
		Author:        q.Author,
		URL:           q.URL,
		PublishedDate: q.CreatedAt.Format(time.RFC3339),
		Engagement: domain.Engagement{
			Raw:        raw,
			Normalized: NormalizeEngagement(domain.SourceStackOverflow, raw),
		},
		RelatedPapers: []string{},
		Tags:          tags,
		CreatedAt:     now.UTC().Format(time.RFC3339),
	}
}

func FromRedditPost(post sources.RedditPost, now time.Time) domain.Signal {
	raw := domain.EngagementRaw{
		"score":        float64(post.Score),
		"num_comments": float64(post.NumComments),
		"upvote_ratio": post.UpvoteRatio,
	}

	var content string
	if post.Text != "" {
		content = truncate(post.Title+". "+post.Text, 500)
	} else {
		content = fmt.Sprintf("%s. Reddit post from r/%s with %d comments and %d upvotes.",
			post.Title, post.Subreddit, post.NumComments, post.Score)
	}

	author := post.Author
	if author == "" {
		author = "Unknown"
	}

	return domain.Signal{
		ID:            domain.SignalID(domain.SourceReddit, post.ID),
		Type:          domain.SourceReddit,
		Title:         post.Title,
		Content:       content,
		Author:        author,
		URL:           post.URL,
		PublishedDate: post.CreatedAt.Format(time.RFC3339),
		Engagement: domain.Engagement{
			Raw:        raw,
			Normalized: NormalizeEngagement(domain.SourceReddit, raw),
		},
		RelatedPapers: []string{},
		Tags:          []string{"r/" + post.Subreddit},
		CreatedAt:     now.UTC().Format(time.RFC3339),
	}
}

func FromYouTubeVideo(video sources.YouTubeVideo, now time.Time) domain.Signal {
	var content string
	if video.Description != "" {
		content = truncate(video.Title+". "+video.Description, 500)
	} else {
		content = video.Title
	}

	author := video.ChannelTitle
	if author == "" {
		author = "Unknown"
	}

	return domain.Signal{
		ID:            domain.SignalID(domain.SourceYouTube, video.ID),
		Type:          domain.SourceYouTube,
		Title:         video.Title,
		Content:       content,
		Author:        author,
		URL:           video.URL,
		PublishedDate: video.PublishedAt,
		Engagement: domain.Engagement{
			Raw: domain.EngagementRaw{},
			// Search results carry no view counts, so score neutrally.
			Normalized: 0.5,
		},
		RelatedPapers: []string{},
		Tags:          []string{},
		CreatedAt:     now.UTC().Format(time.RFC3339),
	}
}

func boolFlag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
