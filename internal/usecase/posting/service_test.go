package posting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tg-post-bot/internal/domain"
)

type fakePostRepo struct {
	posts map[string]domain.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[string]domain.Post{}}
}

func (r *fakePostRepo) Insert(_ context.Context, post domain.Post) error {
	r.posts[post.ID] = post
	return nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id string) (domain.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	return post, nil
}

func (r *fakePostRepo) ListRecent(_ context.Context, _ int) ([]domain.Post, error) {
	out := make([]domain.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePostRepo) UpdateContent(_ context.Context, id string, content domain.PostContent) (bool, error) {
	post, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	post.Text = content.Text
	post.Buttons = content.Buttons
	post.PhotoRef = content.PhotoRef
	r.posts[id] = post
	return true, nil
}

func (r *fakePostRepo) UpdateMessages(_ context.Context, id string, mainMessageID, textMessageID int64, content domain.PostContent) (bool, error) {
	post, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	post.MainMessageID = mainMessageID
	post.TextMessageID = textMessageID
	post.Text = content.Text
	post.Buttons = content.Buttons
	post.PhotoRef = content.PhotoRef
	r.posts[id] = post
	return true, nil
}

func (r *fakePostRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.posts[id]; !ok {
		return false, nil
	}
	delete(r.posts, id)
	return true, nil
}

type sentMessage struct {
	kind     string
	photoRef string
	text     string
	buttons  []domain.Button
}

type fakePublisher struct {
	nextID  int64
	sent    []sentMessage
	edits   []sentMessage
	deleted []int64
	sendErr error
}

func (p *fakePublisher) SendText(_ context.Context, _ string, text string, buttons []domain.Button) (int64, error) {
	if p.sendErr != nil {
		return 0, p.sendErr
	}
	p.nextID++
	p.sent = append(p.sent, sentMessage{kind: "text", text: text, buttons: buttons})
	return p.nextID, nil
}

func (p *fakePublisher) SendPhoto(_ context.Context, _ string, photoRef, caption string, buttons []domain.Button) (int64, error) {
	if p.sendErr != nil {
		return 0, p.sendErr
	}
	p.nextID++
	p.sent = append(p.sent, sentMessage{kind: "photo", photoRef: photoRef, text: caption, buttons: buttons})
	return p.nextID, nil
}

func (p *fakePublisher) EditText(_ context.Context, _ string, messageID int64, text string, buttons []domain.Button) error {
	p.edits = append(p.edits, sentMessage{kind: "edit_text", text: text, buttons: buttons})
	return nil
}

func (p *fakePublisher) EditCaption(_ context.Context, _ string, messageID int64, caption string, buttons []domain.Button) error {
	p.edits = append(p.edits, sentMessage{kind: "edit_caption", text: caption, buttons: buttons})
	return nil
}

func (p *fakePublisher) DeleteMessage(_ context.Context, _ string, messageID int64) error {
	p.deleted = append(p.deleted, messageID)
	return nil
}

func newTestService(repo *fakePostRepo, pub *fakePublisher) *Service {
	return NewService(repo, pub, zerolog.Nop(), 1024)
}

func TestPublishTextOnly(t *testing.T) {
	repo := newFakePostRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	post, err := svc.PublishAndStore(context.Background(), Publication{
		ChannelID: "@channel",
		Text:      "Hello",
		CreatedBy: 42,
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(pub.sent) != 1 || pub.sent[0].kind != "text" {
		t.Fatalf("ожидали одно текстовое сообщение, получили %+v", pub.sent)
	}
	if post.TextMessageID != 0 {
		t.Fatalf("текстовый пост не должен иметь второго сообщения")
	}
	stored, err := repo.GetByID(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("пост не сохранился: %v", err)
	}
	if stored.MainMessageID != post.MainMessageID {
		t.Fatalf("расхождение идентификаторов сообщения")
	}
}

func TestPublishPhotoSplit(t *testing.T) {
	repo := newFakePostRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	text := strings.Repeat("я", 4000)
	post, err := svc.PublishAndStore(context.Background(), Publication{
		ChannelID: "@channel",
		Text:      text,
		Buttons:   []domain.Button{{Label: "Сайт", URL: "https://example.com"}},
		PhotoRef:  "file123",
		Split:     true,
		CreatedBy: 42,
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(pub.sent) != 2 {
		t.Fatalf("ожидали два сообщения, получили %d", len(pub.sent))
	}
	if pub.sent[0].kind != "photo" || len(pub.sent[0].buttons) != 0 {
		t.Fatalf("первым должно идти фото без кнопок: %+v", pub.sent[0])
	}
	if pub.sent[1].kind != "text" || pub.sent[1].text != text {
		t.Fatalf("вторым должен идти полный текст")
	}
	if post.MainMessageID == 0 || post.TextMessageID == 0 {
		t.Fatalf("оба идентификатора должны быть заполнены: %+v", post)
	}
	if !post.Split() {
		t.Fatalf("пост должен считаться раздельным")
	}
}

func TestPublishSendFailureNothingStored(t *testing.T) {
	repo := newFakePostRepo()
	pub := &fakePublisher{sendErr: errors.New("сеть упала")}
	svc := newTestService(repo, pub)

	_, err := svc.PublishAndStore(context.Background(), Publication{ChannelID: "@channel", Text: "Привет"})
	if err == nil {
		t.Fatalf("ожидали ошибку отправки")
	}
	if len(repo.posts) != 0 {
		t.Fatalf("при ошибке отправки пост не должен сохраняться")
	}
}

func TestEditTextInPlaceKeepsMessageIDs(t *testing.T) {
	repo := newFakePostRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	post, err := svc.PublishAndStore(context.Background(), Publication{ChannelID: "@channel", Text: "старый текст"})
	if err != nil {
		t.Fatalf("публикация: %v", err)
	}

	updated, err := svc.ApplyPostEdit(context.Background(), post.ID, domain.PostContent{Text: "новый текст"})
	if err != nil {
		t.Fatalf("правка: %v", err)
	}
	if updated.MainMessageID != post.MainMessageID {
		t.Fatalf("правка на месте не должна менять идентификатор сообщения")
	}
	if len(pub.deleted) != 0 {
		t.Fatalf("правка на месте не должна удалять сообщения")
	}
	if len(pub.edits) != 1 || pub.edits[0].kind != "edit_text" {
		t.Fatalf("ожидали одну правку текста: %+v", pub.edits)
	}
	stored, _ := repo.GetByID(context.Background(), post.ID)
	if stored.Text != "новый текст" {
		t.Fatalf("текст в хранилище не обновился: %q", stored.Text)
	}
}

func TestEditPhotoChangeRepublishes(t *testing.T) {
	repo := newFakePostRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	post, err := svc.PublishAndStore(context.Background(), Publication{
		ChannelID: "@channel",
		Text:      "подпись",
		PhotoRef:  "old_photo",
	})
	if err != nil {
		t.Fatalf("публикация: %v", err)
	}
	oldMain := post.MainMessageID

	updated, err := svc.ApplyPostEdit(context.Background(), post.ID, domain.PostContent{
		Text:     "подпись",
		PhotoRef: "new_photo",
	})
	if err != nil {
		t.Fatalf("правка: %v", err)
	}
	if updated.MainMessageID == oldMain {
		t.Fatalf("смена фото обязана перепубликовать пост")
	}
	if len(pub.deleted) != 1 || pub.deleted[0] != oldMain {
		t.Fatalf("старое сообщение должно быть удалено: %+v", pub.deleted)
	}
	if updated.PhotoRef != "new_photo" {
		t.Fatalf("новое фото не сохранилось")
	}
}

func TestEditSplitToShortRepublishes(t *testing.T) {
	repo := newFakePostRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	long := strings.Repeat("д", 4000)
	post, err := svc.PublishAndStore(context.Background(), Publication{
		ChannelID: "@channel",
		Text:      long,
		PhotoRef:  "file123",
		Split:     true,
	})
	if err != nil {
		t.Fatalf("публикация: %v", err)
	}
	oldMain, oldText := post.MainMessageID, post.TextMessageID

	updated, err := svc.ApplyPostEdit(context.Background(), post.ID, domain.PostContent{
		Text:     strings.Repeat("к", 50),
		PhotoRef: "file123",
	})
	if err != nil {
		t.Fatalf("правка: %v", err)
	}
	if len(pub.deleted) != 2 {
		t.Fatalf("оба старых сообщения должны быть удалены, удалено %d", len(pub.deleted))
	}
	if pub.deleted[0] != oldMain || pub.deleted[1] != oldText {
		t.Fatalf("удалены не те сообщения: %+v", pub.deleted)
	}
	if updated.TextMessageID != 0 {
		t.Fatalf("короткая подпись не должна иметь второго сообщения")
	}
	if updated.MainMessageID == oldMain {
		t.Fatalf("ожидали новое главное сообщение")
	}
}

func TestEditSplitInPlaceEditsBothMessages(t *testing.T) {
	repo := newFakePostRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	long := strings.Repeat("д", 4000)
	post, err := svc.PublishAndStore(context.Background(), Publication{
		ChannelID: "@channel",
		Text:      long,
		PhotoRef:  "file123",
		Split:     true,
	})
	if err != nil {
		t.Fatalf("публикация: %v", err)
	}

	newText := strings.Repeat("ю", 3000)
	updated, err := svc.ApplyPostEdit(context.Background(), post.ID, domain.PostContent{
		Text:     newText,
		PhotoRef: "file123",
		Split:    true,
	})
	if err != nil {
		t.Fatalf("правка: %v", err)
	}
	if updated.MainMessageID != post.MainMessageID || updated.TextMessageID != post.TextMessageID {
		t.Fatalf("правка на месте не должна менять идентификаторы")
	}
	if len(pub.edits) != 2 {
		t.Fatalf("ожидали правку подписи и текста, правок %d", len(pub.edits))
	}
	if pub.edits[0].kind != "edit_caption" || len(pub.edits[0].buttons) != 0 {
		t.Fatalf("подпись правится без кнопок: %+v", pub.edits[0])
	}
	if pub.edits[1].kind != "edit_text" || pub.edits[1].text != newText {
		t.Fatalf("текстовое сообщение должно получить полный текст")
	}
}

func TestEditTooLongWithoutSplitRejected(t *testing.T) {
	repo := newFakePostRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	post, err := svc.PublishAndStore(context.Background(), Publication{
		ChannelID: "@channel",
		Text:      "подпись",
		PhotoRef:  "file123",
	})
	if err != nil {
		t.Fatalf("публикация: %v", err)
	}

	_, err = svc.ApplyPostEdit(context.Background(), post.ID, domain.PostContent{
		Text:     strings.Repeat("ж", 2000),
		PhotoRef: "file123",
	})
	if !errors.Is(err, domain.ErrContentTooLong) {
		t.Fatalf("ожидали ErrContentTooLong, получили %v", err)
	}
	if len(pub.edits) != 0 && len(pub.deleted) != 0 {
		t.Fatalf("при отказе канал трогать нельзя")
	}
}

func TestDeletePostRemovesMessagesAndRow(t *testing.T) {
	repo := newFakePostRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	long := strings.Repeat("т", 4000)
	post, err := svc.PublishAndStore(context.Background(), Publication{
		ChannelID: "@channel",
		Text:      long,
		PhotoRef:  "file123",
		Split:     true,
	})
	if err != nil {
		t.Fatalf("публикация: %v", err)
	}

	if err := svc.Delete(context.Background(), post.ID); err != nil {
		t.Fatalf("удаление: %v", err)
	}
	if len(pub.deleted) != 2 {
		t.Fatalf("оба сообщения должны быть удалены, удалено %d", len(pub.deleted))
	}
	if _, err := repo.GetByID(context.Background(), post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("строка поста должна исчезнуть")
	}
}
