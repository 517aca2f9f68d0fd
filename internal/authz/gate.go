// Package authz はアクションごとの認可判定を一元化する。
// ルートごとに役割や所有権の判定を書き散らさず、必ずこのゲートを通す。
package authz

import "github.com/hitoshi/bloggy/internal/model"

// Decision は認可判定の結果を表す。
type Decision int

const (
	// Deny は操作を拒否する。
	Deny Decision = iota
	// Allow は操作を許可する。
	Allow
)

// Action は認可対象の操作を記述する。
// 所有権や公開状態の事実は呼び出し元が解決して渡す。ゲート自身はストレージに触れない。
type Action struct {
	// RequiredRole が指定された場合、その役割（または管理者）のみ許可する。
	RequiredRole *model.Role
	// ResourceOwnerID が指定された場合、所有者（または管理者）のみ許可する。
	ResourceOwnerID *int64
	// ResourceVisibility が指定された場合、承認済みなら誰でも、
	// 未承認なら所有者と管理者のみ許可する。
	ResourceVisibility *model.PostStatus
}

// AdminOnly は管理者専用操作のActionを生成する。
func AdminOnly() Action {
	role := model.RoleAdmin
	return Action{RequiredRole: &role}
}

// OwnedBy は所有者限定操作（編集・削除・プロフィール閲覧）のActionを生成する。
func OwnedBy(ownerID int64) Action {
	return Action{ResourceOwnerID: &ownerID}
}

// ViewContent は単一コンテンツ閲覧のActionを生成する。
func ViewContent(ownerID int64, visibility model.PostStatus) Action {
	return Action{ResourceOwnerID: &ownerID, ResourceVisibility: &visibility}
}

// Decide は呼び出し元の身元（未認証はnil）とActionから許可・拒否を判定する。
// 純粋関数であり副作用を持たない。すべての入力の組み合わせに対して必ず判定を返す。
//
// 判定規則:
//  1. 未認証: 役割要求がなく公開状態がapprovedの操作のみ許可。
//  2. 役割要求あり: 要求役割または管理者のみ許可。所有権判定より優先する。
//  3. 管理者: 所有権・公開状態によらず常に許可（管理者のみが所有権を迂回できる）。
//  4. 所有権要求あり: 所有者本人を許可。
//  5. 公開状態要求あり: approvedなら許可、pendingは上記で許可されない限り拒否。
func Decide(caller *model.User, action Action) Decision {
	if caller == nil {
		if action.RequiredRole == nil && isPublic(action.ResourceVisibility) {
			return Allow
		}
		return Deny
	}

	if action.RequiredRole != nil {
		if caller.Role == *action.RequiredRole || caller.Role == model.RoleAdmin {
			return Allow
		}
		return Deny
	}

	// 管理者の所有権迂回はすべての所有権操作に一様に適用される
	if caller.Role == model.RoleAdmin {
		return Allow
	}

	if action.ResourceOwnerID != nil && caller.ID == *action.ResourceOwnerID {
		return Allow
	}

	if action.ResourceVisibility != nil {
		if isPublic(action.ResourceVisibility) {
			return Allow
		}
		return Deny
	}

	if action.ResourceOwnerID != nil {
		return Deny
	}

	// 制約のない操作は認証済みであれば許可する
	return Allow
}

// isPublic は公開状態が指定されかつapprovedかどうかを返す。
func isPublic(visibility *model.PostStatus) bool {
	return visibility != nil && *visibility == model.PostStatusApproved
}
