// Package format contains lightweight source rewrites for MQL files.
//
// Назначение: склеивает литералы C'...' и D'...', разорванные clang-format; MetaEditor их не принимает.
// Не делает: полноценного pretty-print файла.
// Зависимости: golang.org/x/text для файлов в UTF-16.
package format
