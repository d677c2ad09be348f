package domain

import "errors"

var (
	// ErrNotFound — задача или пост не существует. В гонке с планировщиком
	// это штатный исход, а не авария.
	ErrNotFound = errors.New("запись не найдена")
	// ErrEmptyText — текст поста пуст после обрезки пробелов.
	ErrEmptyText = errors.New("текст поста пуст")
	// ErrContentTooLong — фото с текстом длиннее лимита подписи без
	// выбранного режима split. Разрешается выбором пользователя, а не отказом.
	ErrContentTooLong = errors.New("текст слишком длинный для подписи к фото")
	// ErrRunAtTooSoon — время публикации не позже, чем сейчас плюс задел.
	ErrRunAtTooSoon = errors.New("время публикации слишком близко")
	// ErrMissingTextMessage — посту в раздельной форме не хватает
	// сохранённого второго сообщения. Правка прерывается, пост не трогаем.
	ErrMissingTextMessage = errors.New("у поста нет сохранённого текстового сообщения")
)
